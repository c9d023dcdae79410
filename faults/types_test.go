package faults

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ConflictingData, "store exists", nil)
	if !IsCategory(err, ConflictingData) {
		t.Fatalf("expected conflicting-data category match")
	}
	if IsCategory(err, FailedRequest) {
		t.Fatalf("expected failed-request category mismatch")
	}

	wrapped := errors.New("wrap: " + err.Error())
	if IsCategory(wrapped, ConflictingData) {
		t.Fatalf("plain wrapped string error must not match typed category")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ConflictingData) {
		t.Fatalf("expected category match through errors.Join")
	}
}

func TestFailedRequestCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("save: %w", NewFailedRequest("PUT", "/workspaces/ws.xml", 500, []byte("boom")))
	if !IsCategory(err, FailedRequest) {
		t.Fatalf("expected failed request category, got %v", err)
	}
	if got := StatusCode(err); got != 500 {
		t.Fatalf("expected status 500, got %d", got)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected body in message, got %q", err.Error())
	}
	if IsNotFound(err) {
		t.Fatalf("500 must not be reported as not found")
	}

	if !IsNotFound(NewFailedRequest("DELETE", "/styles/x.xml", 404, nil)) {
		t.Fatalf("expected 404 to be reported as not found")
	}
}

func TestSummarizeBodyTruncates(t *testing.T) {
	t.Parallel()

	if got := SummarizeBody([]byte("  ")); got != "<empty>" {
		t.Fatalf("expected <empty>, got %q", got)
	}
	long := strings.Repeat("x", 600)
	if got := SummarizeBody([]byte(long)); len(got) != 515 {
		t.Fatalf("expected truncated summary, got length %d", len(got))
	}
}
