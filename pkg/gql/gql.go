package gql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoTransport is returned by a Client created without a transport.
var ErrNoTransport = errors.New("gql: client has no transport")

// Request is a GraphQL operation as sent over the wire.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Location points into the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is a single GraphQL error.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Result is a GraphQL response. A result with Errors is still cached;
// only transport failures are returned as Go errors.
type Result struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// Err returns a *ResultError when the result carries GraphQL errors.
func (r *Result) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return &ResultError{Errors: r.Errors}
}

// Decode unmarshals Data into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return errors.New("gql: result has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// Transport executes one operation.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Result, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Result, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// HTTPError is returned by RemoteTransport for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gql: server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("gql: server responded with status %d: %s", e.StatusCode, e.Body)
}

// ResultError wraps the GraphQL errors of a result.
type ResultError struct {
	Errors []Error
}

func (e *ResultError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Message
	}
	return "gql: " + strings.Join(msgs, "; ")
}
