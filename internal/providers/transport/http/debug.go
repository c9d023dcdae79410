package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/transport"
)

type tlsDebugInfo struct {
	enabled            bool
	insecureSkipVerify bool
	caCertFile         string
	clientCertFile     string
}

func newTLSDebugInfo(tlsSettings *config.TLS, certificate *config.Certificate) tlsDebugInfo {
	info := tlsDebugInfo{}
	if tlsSettings != nil {
		info.enabled = true
		info.insecureSkipVerify = tlsSettings.InsecureSkipVerify
		info.caCertFile = strings.TrimSpace(tlsSettings.CACertFile)
		info.clientCertFile = strings.TrimSpace(tlsSettings.ClientCertFile)
	}
	if certificate != nil {
		info.enabled = true
		info.clientCertFile = strings.TrimSpace(certificate.ClientCertFile)
		if ca := strings.TrimSpace(certificate.CACertFile); ca != "" {
			info.caCertFile = ca
		}
	}
	return info
}

func (c *Channel) doRequest(ctx context.Context, request *http.Request, attempt int) (*transport.Response, error) {
	debugctx.Printf(
		ctx,
		"http request method=%q url=%q attempt=%d auth=%s request_id=%q tls_enabled=%t tls_insecure_skip_verify=%t tls_ca_cert_file=%q tls_client_cert_file=%q",
		request.Method,
		redactURLForDebug(request.URL),
		attempt,
		c.auth,
		request.Header.Get("X-Request-ID"),
		c.tlsDebug.enabled,
		c.tlsDebug.insecureSkipVerify,
		c.tlsDebug.caCertFile,
		c.tlsDebug.clientCertFile,
	)

	response, err := c.execute(request)
	if err != nil {
		debugctx.Printf(
			ctx,
			"http request failed method=%q url=%q error=%v",
			request.Method,
			redactURLForDebug(request.URL),
			err,
		)
		return nil, err
	}

	debugctx.Printf(
		ctx,
		"http response method=%q url=%q status=%d bytes=%d",
		request.Method,
		redactURLForDebug(request.URL),
		response.StatusCode,
		len(response.Body),
	)
	return response, nil
}

func logRetry(ctx context.Context, method string, targetURL string, statusCode int, attempt int, delay time.Duration) {
	parsed, _ := url.Parse(targetURL)
	debugctx.Printf(
		ctx,
		"http retry method=%q url=%q status=%d attempt=%d delay=%s",
		method,
		redactURLForDebug(parsed),
		statusCode,
		attempt,
		delay,
	)
}

func (c *Channel) startSpan(ctx context.Context, method string, targetURL string) (context.Context, trace.Span) {
	parsed, _ := url.Parse(targetURL)
	return c.tracer.Start(
		ctx,
		"gsconfig "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", redactURLForDebug(parsed)),
		),
	)
}

func endSpan(span trace.Span, response *transport.Response, attempts int, err error) {
	span.SetAttributes(attribute.Int("gsconfig.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("http.response.status_code", response.StatusCode))
	if response.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(response.StatusCode))
	}
}

func redactURLForDebug(value *url.URL) string {
	if value == nil {
		return ""
	}

	cloned := *value
	cloned.User = nil

	query := cloned.Query()
	if len(query) > 0 {
		for key, values := range query {
			redacted := make([]string, len(values))
			for idx := range values {
				redacted[idx] = "<redacted>"
			}
			query[key] = redacted
		}
		cloned.RawQuery = query.Encode()
	}

	return cloned.String()
}
