// Package apiclient is the HTTP client for the digibank backend contract.
//
// Every request carries the session's bearer token, an X-Request-ID and a
// digibank User-Agent. Failures are reported as coded errors:
//
//   - 401 clears the session and returns CodeUnauthorized
//   - any other non-2xx returns CodeRequestFailed wrapping an *HTTPError
//   - transport failures and timeouts return CodeRequestFailed
//   - a 2xx whose body cannot be decoded returns CodeResponseMalformed
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"digibank/internal/platform/logger"
	"digibank/internal/platform/metrics"
	"digibank/internal/session"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/requestcontext"
)

// Version is stamped into the User-Agent. Overridden at link time.
var Version = "dev"

// DefaultBaseURL is the backend root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// RequestIDHeader carries the correlation id of each call.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 << 10

// HTTPError is a non-2xx response other than 401. Body is the raw response
// text so callers can show what the backend said.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status, true
	}
	return 0, false
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Session
	userAgent string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request made through the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client rooted at baseURL. sess must not be nil.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{},
		session:   sess,
		userAgent: "digibank-cli/" + Version,
		logger:    logger.Discard(),
		tracer:    otel.Tracer("digibank/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

type call struct {
	method   string
	path     string
	endpoint string
	header   http.Header
	body     any
}

// do performs one request and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	ctx, requestID := requestcontext.EnsureRequestID(ctx)
	ctx, span := c.tracer.Start(ctx, cl.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("digibank.request_id", requestID),
		),
	)
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, cl, requestID, out)
	c.metrics.ObserveRequest(cl.endpoint, statusClass(status), time.Since(start).Seconds())

	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		c.logger.DebugContext(ctx, "api call failed",
			"endpoint", cl.endpoint,
			"status", status,
			"request_id", requestID,
			"error", err,
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, cl call, requestID string, out any) (int, error) {
	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeRequestFailed, cl.endpoint)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		c.session.Clear()
		return resp.StatusCode, dErrors.New(dErrors.CodeUnauthorized, "session is not authorized")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		return resp.StatusCode, dErrors.Wrap(httpErr, dErrors.CodeRequestFailed, cl.endpoint)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A read failure mid-body is a transport problem, not a bad payload.
		if ctx.Err() != nil {
			return resp.StatusCode, dErrors.Wrap(ctx.Err(), dErrors.CodeRequestFailed, cl.endpoint)
		}
		return resp.StatusCode, dErrors.Wrap(err, dErrors.CodeResponseMalformed, cl.endpoint)
	}
	return resp.StatusCode, nil
}

func statusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
