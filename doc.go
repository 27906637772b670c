// Package ssrkit is a server-side rendering starter kit.
//
// An application registers reducers, routes, middleware and GraphQL wiring
// on a Settings value, then hands it to New together with the root view.
// Every request gets its own GraphQL client and store; the render fallback
// renders the root view until its queries converge and streams the
// document, with the store state embedded as window.__STATE__ so the
// browser bundle can pick up where the server left off.
//
//	settings := ssrkit.NewSettings()
//	settings.AddReducer("counter", store.NewSlice(Counter{}, reduceCounter))
//	settings.EnableGraphQLServer(schema)
//	settings.Set404Handler(func(c *ssrkit.Context) error {
//	    return c.String(http.StatusNotFound, "Not found")
//	})
//
//	app, err := ssrkit.New(Root, settings, ssrkit.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(app.Run(context.Background()))
//
// Requests pass through, in order: the request id and the /ping and
// /favicon.ico health routes, CORS, the error trap, the Response-Time
// header, metrics and tracing, client and store injection, before
// middleware, the TLS redirect, security headers and after middleware.
// They then reach the GraphQL endpoint, custom routes, static files or
// the render fallback.
package ssrkit
