package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of a failed response is kept in HTTPError.
const maxErrorBody = 64 << 10

// RequestMiddleware runs on every outgoing request, in registration order,
// before it is sent. Returning an error aborts the operation.
type RequestMiddleware func(req *http.Request) error

// ResponseAfterware runs on every response, in registration order, before
// the body is decoded.
type ResponseAfterware func(resp *http.Response) error

// RemoteTransport posts operations to a GraphQL HTTP endpoint.
type RemoteTransport struct {
	url        string
	client     *http.Client
	header     http.Header
	middleware []RequestMiddleware
	afterware  []ResponseAfterware
}

// RemoteOption configures a RemoteTransport.
type RemoteOption func(*RemoteTransport)

// WithHTTPClient sets the client used to send requests.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(t *RemoteTransport) {
		t.client = c
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) RemoteOption {
	return func(t *RemoteTransport) {
		t.header.Add(key, value)
	}
}

// WithMiddleware appends request middleware.
func WithMiddleware(mw ...RequestMiddleware) RemoteOption {
	return func(t *RemoteTransport) {
		t.middleware = append(t.middleware, mw...)
	}
}

// WithAfterware appends response afterware.
func WithAfterware(aw ...ResponseAfterware) RemoteOption {
	return func(t *RemoteTransport) {
		t.afterware = append(t.afterware, aw...)
	}
}

// NewRemoteTransport creates a transport for the endpoint at url.
func NewRemoteTransport(url string, opts ...RemoteOption) *RemoteTransport {
	t := &RemoteTransport{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// URL returns the endpoint.
func (t *RemoteTransport) URL() string {
	return t.url
}

// Do implements Transport.
func (t *RemoteTransport) Do(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gql: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gql: build request: %w", err)
	}
	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	for _, mw := range t.middleware {
		if err := mw(httpReq); err != nil {
			return nil, fmt.Errorf("gql: request middleware: %w", err)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gql: post %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	for _, aw := range t.afterware {
		if err := aw(resp); err != nil {
			return nil, fmt.Errorf("gql: response afterware: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("gql: decode response: %w", err)
	}
	return &res, nil
}
