// Package middleware provides the observability middleware of an ssrkit
// server.
//
// # Prometheus Metrics
//
// Metrics owns a Prometheus registry and records HTTP traffic, render
// passes and GraphQL operations:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("shop"))
//	r.Use(m.Middleware)
//	r.Handle("/metrics", m.Handler())
//
// The request-scoped GraphQL client reports operations through
// m.ObserveOperation, which has the gql.Observer signature.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span per request and continues traces
// propagated in the request headers. Spans are renamed to the chi route
// pattern once routing completes:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("shop"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/ping"
//	    }),
//	))
//
// Handlers get the span with trace.SpanFromContext(r.Context()).
package middleware
