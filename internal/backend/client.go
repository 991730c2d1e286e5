// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the single egress point to the remote alumni REST API.

Every outbound call goes through a [Caller], which binds the [Client] to the
credential source of one visitor session. The caller attaches the bearer
token when one is present and reacts to HTTP 401 centrally:

 1. the bound [Credentials] are invalidated,
 2. every hook registered with [Client.OnUnauthorized] runs,
 3. the error returned to the page wraps [ErrUnauthorized].

Navigation in response to a 401 is the application shell's concern; this
package only reports it.

A single attempt is made per call. There is no retry or backoff.
*/
package backend

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
	"sync"
	"time"

	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 16 << 10

// Credentials is the credential source a [Caller] is bound to.
type Credentials interface {
	// Token returns the current bearer token, or "" when anonymous.
	Token() string
	// Invalidate discards the credential after the backend rejected it.
	Invalidate(ctx context.Context)
}

// UnauthorizedHook runs after a credentialed request was answered with 401.
type UnauthorizedHook func(ctx context.Context, method, path string)

// Observer receives the outcome of every backend call.
// Status is 0 for transport failures.
type Observer interface {
	ObserveBackend(method, route string, status int, elapsed time.Duration)
}

// Options configures a [Client].
type Options struct {
	// BaseURL is the backend origin, e.g. "http://localhost:8000".
	BaseURL string
	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient overrides the default transport.
	HTTPClient *http.Client
	// Observer is optional.
	Observer Observer
}

// Client is the shared, concurrency-safe backend client.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	observer Observer

	mu    sync.RWMutex
	hooks []UnauthorizedHook
}

// New creates a backend client.
func New(options Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(options.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", options.BaseURL)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		baseURL:  base,
		http:     httpClient,
		observer: options.Observer,
	}, nil
}

// OnUnauthorized registers a hook for rejected credentials.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// As binds the client to a credential source.
func (c *Client) As(creds Credentials) *Caller {
	return &Caller{client: c, creds: creds}
}

// Anonymous returns a caller that never sends a bearer token.
func (c *Client) Anonymous() *Caller {
	return &Caller{client: c}
}

// Caller performs backend calls on behalf of one credential source.
type Caller struct {
	client *Client
	creds  Credentials
}

// call describes one backend request.
type call struct {
	method string
	// route is the path template, used for metrics. Path defaults to it.
	route string
	path  string
	query url.Values
	body  any
	out   any
}

func (c *Caller) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Token()
}

// do executes the call and decodes a successful response into call.out.
func (c *Caller) do(ctx context.Context, op call) error {
	path := op.path
	if path == "" {
		path = op.route
	}

	target := *c.client.baseURL
	target.Path += path
	target.RawQuery = op.query.Encode()

	var body io.Reader
	if op.body != nil {
		encoded, err := json.Marshal(op.body)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", op.method, op.route, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, op.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", op.method, op.route, err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		request.Header.Set(constants.HeaderXRequestID, requestID)
	}

	token := c.token()
	if token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	started := time.Now()
	response, err := c.client.http.Do(request)
	if err != nil {
		c.observe(op, 0, started)
		return &Error{Method: op.method, Path: path, Cause: err}
	}
	defer response.Body.Close()
	c.observe(op, response.StatusCode, started)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if op.out == nil || response.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, response.Body)
			return nil
		}
		if err := json.NewDecoder(response.Body).Decode(op.out); err != nil {
			return &Error{Method: op.method, Path: path, Cause: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	backendErr := &Error{
		Method: op.method,
		Path:   path,
		Status: response.StatusCode,
		Detail: parseDetail(raw),
	}

	if response.StatusCode == http.StatusUnauthorized && token != "" {
		c.unauthorized(ctx, op.method, path)
	}

	return backendErr
}

// unauthorized invalidates the bound credentials, then runs the shell hooks.
func (c *Caller) unauthorized(ctx context.Context, method, path string) {
	ctxutil.GetLogger(ctx).WarnContext(ctx, "backend_credential_rejected",
		slog.String("method", method),
		slog.String("path", path),
	)

	c.creds.Invalidate(ctx)

	c.client.mu.RLock()
	hooks := append([]UnauthorizedHook(nil), c.client.hooks...)
	c.client.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, method, path)
	}
}

func (c *Caller) observe(op call, status int, started time.Time) {
	if c.client.observer != nil {
		c.client.observer.ObserveBackend(op.method, op.route, status, time.Since(started))
	}
}

// IsTransport reports whether err is a failure to reach the backend at all.
func IsTransport(err error) bool {
	var backendErr *Error
	return errors.As(err, &backendErr) && backendErr.Status == 0
}
