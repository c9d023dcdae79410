package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/faults"
	"github.com/planetfederal/gsconfig/transport"
)

func TestNewChannelValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing_url", func(t *testing.T) {
		t.Parallel()

		_, err := NewChannel(config.Profile{})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("unsupported_scheme", func(t *testing.T) {
		t.Parallel()

		_, err := NewChannel(config.Profile{Service: config.Service{URL: "ftp://example.com/rest"}})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("two_auth_strategies", func(t *testing.T) {
		t.Parallel()

		_, err := NewChannel(config.Profile{Service: config.Service{
			URL: "https://example.com/geoserver/rest",
			Auth: &config.Auth{
				BasicAuth: &config.BasicAuth{Username: "admin"},
				Token:     &config.TokenAuth{Token: "abc"},
			},
		}})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("token_without_delivery", func(t *testing.T) {
		t.Parallel()

		disabled := false
		_, err := NewChannel(config.Profile{Service: config.Service{
			URL:  "https://example.com/geoserver/rest",
			Auth: &config.Auth{Token: &config.TokenAuth{Token: "abc", Header: &disabled}},
		}})
		assertTypedCategory(t, err, faults.ValidationError)
	})
}

func TestDoAttachesCredentials(t *testing.T) {
	t.Parallel()

	t.Run("basic_auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || username != "admin" || password != "geoserver" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Path != "/geoserver/rest/workspaces.xml" {
				http.NotFound(w, r)
				return
			}
			_, _ = io.WriteString(w, "<workspaces/>")
		}))
		t.Cleanup(server.Close)

		channel := mustChannel(t, config.Profile{Service: config.Service{
			URL:  server.URL + "/geoserver/rest/",
			Auth: &config.Auth{BasicAuth: &config.BasicAuth{Username: "admin", Password: "geoserver"}},
		}})

		response, err := channel.Do(context.Background(), transport.Request{Method: "get", Path: "/workspaces.xml"})
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if response.StatusCode != http.StatusOK || string(response.Body) != "<workspaces/>" {
			t.Fatalf("unexpected response %d %q", response.StatusCode, response.Body)
		}
		if channel.ServiceURL() != server.URL+"/geoserver/rest" {
			t.Fatalf("unexpected service url %q", channel.ServiceURL())
		}
	})

	t.Run("token_header_and_query", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer secret-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("authkey") != "secret-token" || r.URL.Query().Get("recurse") != "true" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.Header.Get("X-Request-ID") == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		channel := mustChannel(t, config.Profile{Service: config.Service{
			URL: server.URL + "/rest",
			Auth: &config.Auth{Token: &config.TokenAuth{
				Token:      "secret-token",
				QueryParam: config.DefaultTokenQueryParam,
			}},
		}})

		response, err := channel.Do(context.Background(), transport.Request{
			Method: http.MethodDelete,
			Path:   "/workspaces/ws1",
			Query:  map[string]string{"recurse": "true"},
		})
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if response.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", response.StatusCode)
		}
	})
}

func TestDoRetriesTransientStatuses(t *testing.T) {
	t.Parallel()

	t.Run("recovers_after_transient_failures", func(t *testing.T) {
		t.Parallel()

		var calls int32
		var mu sync.Mutex
		var bodies []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(body))
			mu.Unlock()
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(server.Close)

		channel := mustChannel(t, fastRetryProfile(server.URL, 6))
		response, err := channel.Do(context.Background(), transport.Request{
			Method:      http.MethodPost,
			Path:        "/workspaces",
			ContentType: transport.MediaTypeXML,
			Body:        []byte("<workspace><name>ws1</name></workspace>"),
		})
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if response.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", response.StatusCode)
		}
		if atomic.LoadInt32(&calls) != 3 {
			t.Fatalf("expected 3 attempts, got %d", calls)
		}
		mu.Lock()
		defer mu.Unlock()
		for _, body := range bodies {
			if body != "<workspace><name>ws1</name></workspace>" {
				t.Fatalf("expected body replayed on each attempt, got %q", body)
			}
		}
	})

	t.Run("returns_last_response_when_budget_spent", func(t *testing.T) {
		t.Parallel()

		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "proxy down")
		}))
		t.Cleanup(server.Close)

		channel := mustChannel(t, fastRetryProfile(server.URL, 4))
		response, err := channel.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/layers.xml"})
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if response.StatusCode != http.StatusBadGateway || string(response.Body) != "proxy down" {
			t.Fatalf("unexpected response %d %q", response.StatusCode, response.Body)
		}
		if atomic.LoadInt32(&calls) != 4 {
			t.Fatalf("expected 4 attempts, got %d", calls)
		}
	})

	t.Run("does_not_retry_server_errors", func(t *testing.T) {
		t.Parallel()

		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		channel := mustChannel(t, fastRetryProfile(server.URL, 6))
		response, err := channel.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/layers.xml"})
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if response.StatusCode != http.StatusInternalServerError || atomic.LoadInt32(&calls) != 1 {
			t.Fatalf("expected one 500 attempt, got status %d after %d calls", response.StatusCode, calls)
		}
	})
}

func TestDoRejectsForeignAbsoluteURL(t *testing.T) {
	t.Parallel()

	channel := mustChannel(t, config.Profile{Service: config.Service{URL: "https://maps.example.com/geoserver/rest"}})
	_, err := channel.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "https://other.example.com/x.xml"})
	assertTypedCategory(t, err, faults.ValidationError)

	resolved, err := channel.resolveRequestURL("https://maps.example.com/geoserver/rest/layers/a.xml", nil)
	if err != nil || resolved != "https://maps.example.com/geoserver/rest/layers/a.xml" {
		t.Fatalf("expected absolute service url accepted, got %q %v", resolved, err)
	}
}

func TestDoNetworkFailureIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	channel := mustChannel(t, fastRetryProfile(serverURL, 3))
	_, err := channel.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/about/version.xml"})
	assertTypedCategory(t, err, faults.TransportError)
}

func TestDoDebugOutputRedactsQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	channel := mustChannel(t, config.Profile{Service: config.Service{
		URL:  server.URL,
		Auth: &config.Auth{Token: &config.TokenAuth{Token: "secret-token", QueryParam: "authkey"}},
	}})

	var output bytes.Buffer
	ctx := debugctx.WithWriter(debugctx.WithEnabled(context.Background(), true), &output)
	if _, err := channel.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/styles.xml"}); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	if strings.Contains(output.String(), "secret-token") {
		t.Fatalf("debug output leaked token: %s", output.String())
	}
	if !strings.Contains(output.String(), "http response") || !strings.Contains(output.String(), "auth=token") {
		t.Fatalf("expected request and response debug lines, got %s", output.String())
	}
}

func TestDoRecordsSpan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	channel := mustChannel(t, config.Profile{Service: config.Service{URL: server.URL}}, WithTracerProvider(provider))

	if _, err := channel.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/styles/x.xml"}); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name() != "gsconfig GET" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	found := false
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "http.response.status_code" && attr.Value.AsInt64() == 404 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected status attribute on span")
	}
}

func fastRetryProfile(serverURL string, attempts int) config.Profile {
	return config.Profile{
		Service: config.Service{URL: serverURL + "/geoserver/rest"},
		Retry:   &config.Retry{Attempts: attempts, BackoffFactor: 0.001},
	}
}

func mustChannel(t *testing.T, profile config.Profile, opts ...ChannelOption) *Channel {
	t.Helper()

	channel, err := NewChannel(profile, opts...)
	if err != nil {
		t.Fatalf("NewChannel returned error: %v", err)
	}
	return channel
}

func assertTypedCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()

	if !faults.IsCategory(err, category) {
		t.Fatalf("expected %s error, got %v", category, err)
	}
}
