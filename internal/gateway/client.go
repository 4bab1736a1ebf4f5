// Package gateway is the HTTP client for the platform REST API. It owns
// bearer-token injection, error decoding into domain codes, and the global
// unauthorized hook that clears local credentials on any 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seva/internal/platform/metrics"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/httpstatus"
)

// TokenSource supplies the bearer token attached to protected requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// Client talks to the platform API. The zero value is not usable; construct
// with New.
type Client struct {
	baseURL        string
	http           *http.Client
	logger         *slog.Logger
	tokens         TokenSource
	onUnauthorized func(context.Context)
	tracer         trace.Tracer
	metrics        *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenSource attaches the session's token source. Requests carry an
// Authorization header whenever the source yields a non-empty token.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithUnauthorizedHandler registers the hook invoked on any 401 response.
// The session store uses it to clear credentials and force sign-in.
func WithUnauthorizedHandler(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates an API client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("seva/gateway")
	}
	return c
}

// SetUnauthorizedHandler registers the 401 hook after construction. The
// session store needs the client to exist before it can hand over the hook.
func (c *Client) SetUnauthorizedHandler(fn func(context.Context)) {
	c.onUnauthorized = fn
}

// SetTokenSource attaches the token source after construction, for the same
// session-store/client ordering reason as SetUnauthorizedHandler.
func (c *Client) SetTokenSource(src TokenSource) {
	c.tokens = src
}

// Get performs a GET with optional query parameters and decodes the JSON
// response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	return c.do(req, path, out)
}

// PostJSON performs a POST with a JSON body and decodes the JSON response
// into out.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

// PostForm performs a form-encoded POST and decodes the JSON response into
// out. The login endpoint is the only form-encoded surface.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, path, out)
}

// apiError is the error envelope the platform API returns on failures.
type apiError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	ctx, span := c.tracer.Start(req.Context(), "gateway."+req.Method+" "+endpoint,
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", endpoint),
		))
	req = req.WithContext(ctx)

	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.RequestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "request failed")
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		span.SetStatus(codes.Error, "unauthorized")
		span.End()
		c.logger.WarnContext(ctx, "unauthorized response, clearing credentials", "endpoint", endpoint)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return dErrors.New(dErrors.CodeUnauthorized, "session expired, sign in again")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var envelope apiError
		_ = json.Unmarshal(body, &envelope)
		msg := envelope.message()
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		span.SetStatus(codes.Error, msg)
		span.End()
		return dErrors.New(httpstatus.ToCode(resp.StatusCode), msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode failed")
			span.End()
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode response")
		}
	}
	span.End()
	return nil
}
