package debugctx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

func TestPrintfRequiresEnabledContext(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	ctx := WithWriter(context.Background(), &buffer)
	Printf(ctx, "hidden %d", 1)
	if buffer.Len() != 0 {
		t.Fatalf("expected no output when debug disabled, got %q", buffer.String())
	}

	Printf(WithEnabled(ctx, true), "shown %d", 2)
	if buffer.String() != "debug: shown 2\n" {
		t.Fatalf("unexpected debug output %q", buffer.String())
	}
}

func TestLoggerWritesKeyValues(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	ctx := WithEnabled(WithWriter(context.Background(), &buffer), true)
	Logger(ctx).V(1).Info("cache miss", "key", "/workspaces.xml")

	output := buffer.String()
	if !strings.HasPrefix(output, "debug: ") || !strings.Contains(output, `"key"="/workspaces.xml"`) {
		t.Fatalf("unexpected logger output %q", output)
	}
}

func TestLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	ctx := logr.NewContext(context.Background(), logr.Discard())
	if Logger(ctx).GetSink() != nil {
		t.Fatalf("expected the discard logger stored in the context")
	}
	if Logger(context.Background()).Enabled() {
		t.Fatalf("expected disabled logger without debug context")
	}
}
