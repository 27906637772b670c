package view

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/render"
	"github.com/ssrkit/ssrkit/pkg/store"
	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// View renders the page for the current scope.
type View func(s *Scope) *vdom.VNode

// Env is what a render sees of the request.
type Env struct {
	Request *http.Request
	Client  *gql.Client
	Store   *store.Store
}

// Head collects document metadata while rendering.
type Head struct {
	Title string
	Meta  []render.MetaTag
	Links []render.LinkTag
}

// frame is shared by a scope and the child scopes created by routing.
type frame struct {
	head    Head
	pending []render.Operation
	seen    map[string]bool
}

// Scope is the view's handle on the request during one render pass.
type Scope struct {
	ctx    context.Context
	env    *Env
	frame  *frame
	params map[string]string
}

func newScope(ctx context.Context, env *Env) *Scope {
	return &Scope{
		ctx:    ctx,
		env:    env,
		frame:  &frame{seen: make(map[string]bool)},
		params: map[string]string{},
	}
}

func (s *Scope) withParams(params map[string]string) *Scope {
	merged := make(map[string]string, len(s.params)+len(params))
	for k, v := range s.params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return &Scope{ctx: s.ctx, env: s.env, frame: s.frame, params: merged}
}

// Context returns the request context.
func (s *Scope) Context() context.Context { return s.ctx }

// Request returns the incoming request.
func (s *Scope) Request() *http.Request { return s.env.Request }

// Location returns the requested URL.
func (s *Scope) Location() *url.URL {
	if s.env.Request == nil {
		return &url.URL{Path: "/"}
	}
	return s.env.Request.URL
}

// Param returns a route parameter matched by an enclosing Switch.
func (s *Scope) Param(name string) string { return s.params[name] }

// Params returns a copy of all matched route parameters.
func (s *Scope) Params() map[string]string {
	out := make(map[string]string, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

// Client returns the request's GraphQL client.
func (s *Scope) Client() *gql.Client { return s.env.Client }

// Store returns the request's store.
func (s *Scope) Store() *store.Store { return s.env.Store }

// Head returns the document metadata of this pass.
func (s *Scope) Head() *Head { return &s.frame.head }

// SetTitle sets the document title.
func (s *Scope) SetTitle(title string) { s.frame.head.Title = title }

// AddMeta appends a meta tag to the document head.
func (s *Scope) AddMeta(m render.MetaTag) { s.frame.head.Meta = append(s.frame.head.Meta, m) }

// Pending returns the number of operations this pass is waiting on.
func (s *Scope) Pending() int { return len(s.frame.pending) }

// QueryState is what a view sees of an operation.
type QueryState struct {
	// Loading is true until the operation has been awaited. The pipeline
	// renders again once it has.
	Loading bool
	Result  *gql.Result
	Err     error
}

// Decode unmarshals the result data into v.
func (q QueryState) Decode(v any) error {
	if q.Err != nil {
		return q.Err
	}
	return q.Result.Decode(v)
}

// Query returns the cached result of req, or records it as pending and
// reports Loading.
func (s *Scope) Query(req *gql.Request) QueryState {
	client := s.env.Client
	if client == nil {
		return QueryState{Err: gql.ErrNoTransport}
	}
	if res, ok := client.Cached(req); ok {
		return QueryState{Result: res, Err: res.Err()}
	}

	key := client.Key(req)
	if !s.frame.seen[key] {
		s.frame.seen[key] = true
		s.frame.pending = append(s.frame.pending, render.Operation{
			Key: key,
			Run: func(ctx context.Context) error {
				_, err := client.Query(ctx, req)
				return err
			},
		})
	}
	return QueryState{Loading: true}
}
