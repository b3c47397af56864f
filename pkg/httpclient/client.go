// Package httpclient implements the apimanager Client capability on top of
// net/http for JSON-over-HTTP APIs.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/libcommon/apimanager/pkg/apimanager"
)

// StatusError reports a non-success HTTP status. It carries the response so
// callers can inspect rate-limit headers or error bodies.
type StatusError struct {
	StatusCode int
	Response   *apimanager.RawResponse
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: unexpected status %d", e.StatusCode)
}

// IsRateLimited reports whether the remote service itself rejected the call
// for rate limiting, as opposed to the local quota window.
func (e *StatusError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client performs live calls against a single API base URL.
type Client struct {
	baseURL        string
	defaultHeaders map[string]string
	http           *http.Client

	// ProcessFunc shapes responses for caching. The default caches the body
	// of every successful response and suppresses caching of failures.
	ProcessFunc func(resp *apimanager.RawResponse) ([]byte, bool)
}

// New creates a Client for baseURL. defaultHeaders (typically authorization)
// are applied to every request and can be overridden per call.
func New(baseURL string, defaultHeaders map[string]string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultHeaders: defaultHeaders,
		http:           &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient swaps the underlying http.Client, e.g. to change timeouts.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Do executes the request. Non-2xx statuses return a *StatusError; deciding
// what counts as failure is this collaborator's job, not the manager's.
func (c *Client) Do(ctx context.Context, req apimanager.Request) (*apimanager.RawResponse, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Endpoint, "/")
	if len(req.Params) > 0 {
		q := url.Values{}
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	resp := &apimanager.RawResponse{
		StatusCode: httpResp.StatusCode,
		Headers:    headers,
		Body:       respBody,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Response: resp}
	}
	return resp, nil
}

// ProcessResponseForCache implements the cache-shaping half of the Client
// capability.
func (c *Client) ProcessResponseForCache(resp *apimanager.RawResponse) ([]byte, bool) {
	if c.ProcessFunc != nil {
		return c.ProcessFunc(resp)
	}
	if resp == nil {
		return nil, false
	}
	return resp.Body, true
}
