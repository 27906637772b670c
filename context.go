package ssrkit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/store"
)

type contextKey struct{}

// Context is the state of one request. It is created by the error trap
// when the request enters the app; the GraphQL client and the store are
// attached right after. A Context is never shared between requests.
type Context struct {
	w  http.ResponseWriter
	r  *http.Request
	ww chimw.WrapResponseWriter

	id     string
	logger *slog.Logger
	client *gql.Client
	store  *store.Store
	parser *bodyParser
	body   *Body
	berr   error
	parsed bool
	err    error

	mu     sync.Mutex // guards values
	values map[any]any
}

func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *Context {
	ww, ok := w.(chimw.WrapResponseWriter)
	if !ok {
		ww = chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	}

	id := chimw.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Context{
		w:      ww,
		ww:     ww,
		id:     id,
		logger: logger.With("request_id", id),
		values: make(map[any]any),
	}
	c.r = r.WithContext(context.WithValue(r.Context(), contextKey{}, c))
	return c
}

// FromContext returns the request Context stored in ctx. GraphQL resolvers
// running in-process use it to reach cookies, the store and the logger.
func FromContext(ctx context.Context) (*Context, error) {
	c, ok := ctx.Value(contextKey{}).(*Context)
	if !ok {
		return nil, ErrNoContext
	}
	return c, nil
}

// bind returns the Context of r and points it at the current writer and
// request, which inner middleware may have wrapped.
func bind(w http.ResponseWriter, r *http.Request) *Context {
	c, err := FromContext(r.Context())
	if err != nil {
		c = newContext(w, r, nil)
		return c
	}
	c.w = w
	c.r = r
	return c
}

// Request returns the current request.
func (c *Context) Request() *http.Request { return c.r }

// Response returns the current response writer.
func (c *Context) Response() http.ResponseWriter { return c.w }

// StdContext returns the request's context.Context.
func (c *Context) StdContext() context.Context { return c.r.Context() }

// ID returns the request id.
func (c *Context) ID() string { return c.id }

// Logger returns the request logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Client returns the request's GraphQL client.
func (c *Context) Client() *gql.Client { return c.client }

// Store returns the request's store.
func (c *Context) Store() *store.Store { return c.store }

// Param returns a path parameter of the matched custom route.
func (c *Context) Param(name string) string { return chi.URLParam(c.r, name) }

// Query returns a query string parameter.
func (c *Context) Query(name string) string { return c.r.URL.Query().Get(name) }

// Header returns a request header.
func (c *Context) Header(name string) string { return c.r.Header.Get(name) }

// Cookie returns the named request cookie.
func (c *Context) Cookie(name string) (*http.Cookie, error) { return c.r.Cookie(name) }

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) { c.w.Header().Set(key, value) }

// SetCookie adds a Set-Cookie header to the response.
func (c *Context) SetCookie(cookie *http.Cookie) { http.SetCookie(c.w, cookie) }

// Set stores a request-scoped value. It is safe to call from concurrently
// running resolvers.
func (c *Context) Set(key, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Get returns a value stored with Set.
func (c *Context) Get(key any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// WithValue replaces the request context with one carrying key/value, so
// the rest of the chain sees it.
func (c *Context) WithValue(key, value any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, value))
}

// Status returns the response status, or 0 before anything was written.
func (c *Context) Status() int { return c.ww.Status() }

// Written reports whether the response has been started.
func (c *Context) Written() bool {
	return c.ww.Status() != 0 || c.ww.BytesWritten() > 0
}

// String writes a plain text response.
func (c *Context) String(code int, s string) error {
	c.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.w.WriteHeader(code)
	_, err := c.w.Write([]byte(s))
	return err
}

// HTML writes an HTML response.
func (c *Context) HTML(code int, html string) error {
	c.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.w.WriteHeader(code)
	_, err := c.w.Write([]byte(html))
	return err
}

// JSON writes v as a JSON response.
func (c *Context) JSON(code int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.w.WriteHeader(code)
	_, err = c.w.Write(data)
	return err
}

// Redirect responds with a redirect to location and no body.
func (c *Context) Redirect(code int, location string) error {
	c.w.Header().Set("Location", location)
	c.w.WriteHeader(code)
	return nil
}

// NoContent writes the status only.
func (c *Context) NoContent(code int) error {
	c.w.WriteHeader(code)
	return nil
}

// fail records err for the error trap. The first error wins.
func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// takeErr returns and clears the recorded error.
func (c *Context) takeErr() error {
	err := c.err
	c.err = nil
	return err
}
