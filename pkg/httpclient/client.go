// Package httpclient wraps the outgoing HTTP transport for step requests.
// Non-2xx statuses are responses, not errors; only transport-level failures
// (DNS, refused connections, client timeouts) surface as errors.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single request round-trip.
const DefaultTimeout = 30 * time.Second

// Request is a fully resolved outgoing request.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Response is the observed result of a request. Body holds decoded JSON when
// the payload parses, otherwise the raw text.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Client issues step requests through a shared resty client.
type Client struct {
	rc *resty.Client
}

// New creates a Client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		rc: resty.New().SetTimeout(timeout),
	}
}

// Do issues the request and returns the observed response. The status code
// is inspected by callers, never treated as failure here.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	r := c.rc.R().SetContext(ctx)

	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		if !hasContentType(req.Headers) {
			r.SetHeader("Content-Type", "application/json")
		}
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	headers := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}

	return &Response{
		Status:  resp.StatusCode(),
		Headers: headers,
		Body:    decodeBody(resp.Body()),
	}, nil
}

// hasContentType reports whether the header map carries a Content-Type under
// any casing.
func hasContentType(headers map[string]string) bool {
	for k := range headers {
		if textproto.CanonicalMIMEHeaderKey(k) == "Content-Type" {
			return true
		}
	}
	return false
}

// decodeBody parses a JSON payload into structured data; anything else is
// kept as text so captures and assertions can still see it.
func decodeBody(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}
	return trimmed
}
