// Package demo is the example application served by the ssrkit command.
//
// It registers a counter reducer, an in-process GraphQL schema, a state
// dump route and custom 404 and error handlers, and renders a small site
// whose pages query the schema during server-side rendering.
package demo

import (
	"net/http"

	"github.com/ssrkit/ssrkit"
	"github.com/ssrkit/ssrkit/pkg/store"
)

// IncrementCounter is dispatched once per request by PoweredBy.
const IncrementCounter = "INCREMENT_COUNTER"

// Counter is the state of the counter slice.
type Counter struct {
	Count int `json:"count"`
}

func reduceCounter(state Counter, a store.Action) Counter {
	switch a.Type {
	case IncrementCounter:
		return Counter{Count: state.Count + 1}
	}
	return state
}

// CounterSlice returns the counter reducer.
func CounterSlice() store.Slice {
	return store.NewSlice(Counter{}, reduceCounter)
}

// Options select optional parts of the demo.
type Options struct {
	// GraphQLURL sends render queries to a remote server instead of the
	// in-process schema.
	GraphQLURL string

	// GraphQLEndpoint is the path of the in-process server.
	GraphQLEndpoint string

	// GraphiQL serves the explorer page.
	GraphiQL bool
}

// Settings returns the demo registrations.
func Settings(opts Options) *ssrkit.Settings {
	s := ssrkit.NewSettings()
	s.AddReducer("counter", CounterSlice())

	if opts.GraphQLURL != "" {
		s.SetGraphQLEndpoint(opts.GraphQLURL)
	} else {
		var gopts []ssrkit.GraphQLOption
		if opts.GraphQLEndpoint != "" {
			gopts = append(gopts, ssrkit.WithGraphQLEndpoint(opts.GraphQLEndpoint))
		}
		gopts = append(gopts, ssrkit.WithGraphiQL(opts.GraphiQL))
		s.EnableGraphQLServer(Schema(), gopts...)
	}

	s.AddMiddleware(PoweredBy)
	s.AddGetRoute("/test", DumpState)
	s.Set404Handler(NotFound)
	s.SetErrorHandler(OnError)
	return s
}

// PoweredBy tags every response and counts the request in the store.
func PoweredBy(c *ssrkit.Context, next func() error) error {
	c.SetHeader("X-Powered-By", "ssrkit")
	c.Store().Dispatch(store.Action{Type: IncrementCounter})
	return next()
}

// DumpState responds with the request's store state.
func DumpState(c *ssrkit.Context) error {
	return c.JSON(http.StatusOK, c.Store().GetState())
}

// NotFound renders the not-found page.
func NotFound(c *ssrkit.Context) error {
	return c.HTML(http.StatusNotFound, "<!DOCTYPE html><html><head><title>Not found</title></head><body><h1>Not found</h1></body></html>")
}

// OnError logs err and responds with a plain 500.
func OnError(c *ssrkit.Context, err error) {
	c.Logger().Error("request failed", "error", err, "path", c.Request().URL.Path)
	if c.Written() {
		return
	}
	c.String(http.StatusInternalServerError, "Something went wrong.")
}
