package ssrkit

import (
	"net/http"
)

// Handler handles a custom route. A returned error is reported through
// the error trap.
//
//	settings.AddGetRoute("/hello/{name}", func(c *ssrkit.Context) error {
//	    return c.String(http.StatusOK, "hello "+c.Param("name"))
//	})
type Handler func(c *Context) error

// Middleware wraps the rest of the chain. Call next to continue; its error
// is whatever the rest of the chain failed with, and may be returned,
// replaced or swallowed.
//
//	settings.AddMiddleware(func(c *ssrkit.Context, next func() error) error {
//	    c.SetHeader("Powered-By", "ssrkit")
//	    return next()
//	})
type Middleware func(c *Context, next func() error) error

// NotFoundHandler takes over the response when a render ends on a
// not-found route. Nothing else is written after it returns.
type NotFoundHandler func(c *Context) error

// ErrorHandler responds to a request that failed with err. It replaces
// the default logging and generic error body.
type ErrorHandler func(c *Context, err error)

// handle adapts h to net/http. Errors are left on the context for the
// error trap.
func handle(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := bind(w, r)
		if err := h(c); err != nil {
			c.fail(err)
		}
	}
}

// adapt turns mw into chi middleware.
func adapt(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := bind(w, r)
			err := mw(c, func() error {
				next.ServeHTTP(c.Response(), c.Request())
				return c.takeErr()
			})
			if err != nil {
				c.fail(err)
			}
		})
	}
}
