package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
)

type requestKey struct{}

// WithHTTPRequest returns a context carrying the incoming HTTP request,
// so resolvers can read cookies and headers.
func WithHTTPRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// HTTPRequestFromContext returns the request stored by WithHTTPRequest.
func HTTPRequestFromContext(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok
}

// LocalTransport executes operations against an in-process schema.
type LocalTransport struct {
	schema   graphql.Schema
	request  *http.Request
	rootFunc func(ctx context.Context) map[string]any
}

// LocalOption configures a LocalTransport.
type LocalOption func(*LocalTransport)

// WithRequest scopes the transport to an incoming request. Resolvers find
// it with HTTPRequestFromContext.
func WithRequest(r *http.Request) LocalOption {
	return func(t *LocalTransport) {
		t.request = r
	}
}

// WithRootValue sets the root object passed to top-level resolvers.
func WithRootValue(fn func(ctx context.Context) map[string]any) LocalOption {
	return func(t *LocalTransport) {
		t.rootFunc = fn
	}
}

// NewLocalTransport creates a transport bound to schema.
func NewLocalTransport(schema graphql.Schema, opts ...LocalOption) *LocalTransport {
	t := &LocalTransport{schema: schema}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do implements Transport. Resolution runs on the calling goroutine with
// ctx passed to resolvers.
func (t *LocalTransport) Do(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.request != nil {
		ctx = WithHTTPRequest(ctx, t.request)
	}

	params := graphql.Params{
		Schema:         t.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	}
	if t.rootFunc != nil {
		params.RootObject = t.rootFunc(ctx)
	}

	out := graphql.Do(params)

	// Round-trip through JSON so local and remote results share a shape.
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("gql: encode local result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("gql: decode local result: %w", err)
	}
	return &res, nil
}
