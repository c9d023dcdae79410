package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/internal/providers/shared/tlsconfig"
	"github.com/planetfederal/gsconfig/metrics"
	"github.com/planetfederal/gsconfig/transport"
)

const (
	maxResponseBytes = 64 << 20
	tracerName       = "github.com/planetfederal/gsconfig/transport"
	userAgent        = "gsconfig"
)

var _ transport.Channel = (*Channel)(nil)

type Channel struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	auth           authConfig
	client         *http.Client
	retry          retryPolicy
	limiter        *rate.Limiter
	tlsDebug       tlsDebugInfo
	tracer         trace.Tracer
	metrics        *metrics.Recorder
}

type ChannelOption func(*Channel)

func WithHTTPClient(client *http.Client) ChannelOption {
	return func(c *Channel) {
		if c == nil || client == nil {
			return
		}
		c.client = client
	}
}

func WithTracerProvider(provider trace.TracerProvider) ChannelOption {
	return func(c *Channel) {
		if c == nil || provider == nil {
			return
		}
		c.tracer = provider.Tracer(tracerName)
	}
}

func WithMetrics(recorder *metrics.Recorder) ChannelOption {
	return func(c *Channel) {
		if c == nil {
			return
		}
		c.metrics = recorder
	}
}

func NewChannel(profile config.Profile, opts ...ChannelOption) (*Channel, error) {
	baseURL, err := parseBaseURL(profile.Service.URL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(profile.Service.Auth)
	if err != nil {
		return nil, err
	}

	var certificate *config.Certificate
	if profile.Service.Auth != nil {
		certificate = profile.Service.Auth.Certificate
	}
	tlsConfig, err := buildTLSConfig(profile.Service.TLS, certificate)
	if err != nil {
		return nil, err
	}

	timeout := profile.Service.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	httpTransport.TLSClientConfig = tlsConfig

	channel := &Channel{
		baseURL:        baseURL,
		defaultHeaders: cloneStringMap(profile.Service.DefaultHeaders),
		auth:           auth,
		client: &http.Client{
			Timeout:   timeout,
			Transport: httpTransport,
		},
		retry:    newRetryPolicy(profile.RetryPolicy()),
		tlsDebug: newTLSDebugInfo(profile.Service.TLS, certificate),
		tracer:   otel.Tracer(tracerName),
	}
	if profile.RateLimit != nil {
		burst := profile.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		channel.limiter = rate.NewLimiter(rate.Limit(profile.RateLimit.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(channel)
	}
	return channel, nil
}

func (c *Channel) ServiceURL() string {
	return strings.TrimSuffix(c.baseURL.String(), "/")
}

func (c *Channel) Do(ctx context.Context, request transport.Request) (*transport.Response, error) {
	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if method == "" {
		return nil, validationError("request method is required", nil)
	}
	request.Method = method

	targetURL, err := c.resolveRequestURL(request.Path, request.Query)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()

	ctx, span := c.startSpan(ctx, method, targetURL)
	defer span.End()

	attempt := 0
	response, err := c.retry.run(ctx, func() (*transport.Response, error) {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, transportError("rate limiter wait aborted", err)
			}
		}

		httpRequest, err := c.newRequest(ctx, request, targetURL, requestID)
		if err != nil {
			return nil, err
		}
		return c.doRequest(ctx, httpRequest, attempt)
	}, func(statusCode int, delay time.Duration) {
		c.metrics.Retry(method)
		logRetry(ctx, method, targetURL, statusCode, attempt, delay)
	})
	endSpan(span, response, attempt, err)

	if err != nil {
		c.metrics.Request(method, 0)
		return nil, err
	}
	c.metrics.Request(method, response.StatusCode)
	return response, nil
}

func (c *Channel) newRequest(ctx context.Context, spec transport.Request, targetURL string, requestID string) (*http.Request, error) {
	var bodyReader io.Reader
	if len(spec.Body) > 0 {
		bodyReader = bytes.NewReader(spec.Body)
	}

	request, err := http.NewRequestWithContext(ctx, spec.Method, targetURL, bodyReader)
	if err != nil {
		return nil, internalError("failed to create remote request", err)
	}

	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("X-Request-ID", requestID)
	for _, key := range sortedKeys(c.defaultHeaders) {
		request.Header.Set(key, c.defaultHeaders[key])
	}
	if strings.TrimSpace(spec.Accept) != "" {
		request.Header.Set("Accept", spec.Accept)
	}
	if len(spec.Body) > 0 && strings.TrimSpace(spec.ContentType) != "" {
		request.Header.Set("Content-Type", spec.ContentType)
	}
	for _, key := range sortedKeys(spec.Headers) {
		request.Header.Set(key, spec.Headers[key])
	}

	c.auth.apply(request)
	return request, nil
}

func (c *Channel) execute(request *http.Request) (*transport.Response, error) {
	response, err := c.client.Do(request)
	if err != nil {
		return nil, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError("failed to read remote response body", err)
	}

	return &transport.Response{
		StatusCode: response.StatusCode,
		Header:     response.Header.Clone(),
		Body:       body,
	}, nil
}

func (c *Channel) resolveRequestURL(requestPath string, query map[string]string) (string, error) {
	trimmed := strings.TrimSpace(requestPath)
	if trimmed == "" {
		return "", validationError("request path is required", nil)
	}

	var target url.URL
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		if !strings.HasPrefix(parsed.String(), c.ServiceURL()) {
			return "", validationError("request url must be below the service url", nil)
		}
		target = *parsed
	} else {
		relative, err := url.Parse(trimmed)
		if err != nil {
			return "", validationError("request path is invalid", err)
		}
		target = *c.baseURL
		target.Path = joinPath(c.baseURL.Path, relative.Path)
		target.RawQuery = relative.RawQuery
	}

	values := target.Query()
	for _, key := range sortedKeys(query) {
		values.Set(key, query[key])
	}
	target.RawQuery = values.Encode()

	return target.String(), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("service.url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("service.url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("service.url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("service.url host is required", nil)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawQuery = ""

	return parsed, nil
}

func buildTLSConfig(tlsSettings *config.TLS, certificate *config.Certificate) (*tls.Config, error) {
	return tlsconfig.BuildTLSConfig(tlsSettings, certificate, "service.tls")
}

func joinPath(basePath string, requestPath string) string {
	base := strings.TrimSuffix(basePath, "/")
	if requestPath == "" {
		return base
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return base + requestPath
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}

	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}
