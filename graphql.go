package ssrkit

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ssrkit/ssrkit/pkg/gql"
)

// mountGraphQL serves the in-process schema, when one is enabled. GET
// requests without a query get the GraphiQL explorer.
func (a *App) mountGraphQL(r chi.Router) {
	g := a.settings.graphql
	if g.schema == nil {
		return
	}

	h := gql.NewHandler(*g.schema)
	r.Post(g.endpoint, h.ServeHTTP)

	explorer := gql.GraphiQL(g.endpoint)
	r.Get(g.endpoint, func(w http.ResponseWriter, r *http.Request) {
		if g.graphiql && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
			explorer.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// graphQLURL resolves the endpoint render queries are sent to.
func (a *App) graphQLURL() string {
	endpoint := a.settings.graphql.endpoint
	if strings.HasPrefix(endpoint, "/") {
		return strings.TrimSuffix(a.config.ServerURL, "/") + endpoint
	}
	return endpoint
}

// newTransport returns the transport shared by every request's client, or
// nil when render queries run in-process.
func (a *App) newTransport() gql.Transport {
	g := a.settings.graphql
	if g.schema != nil {
		return nil
	}
	return gql.NewRemoteTransport(a.graphQLURL(),
		gql.WithMiddleware(g.middleware...),
		gql.WithAfterware(g.afterware...),
	)
}

// newClient creates the GraphQL client of one request. With an in-process
// schema, resolvers see r through gql.HTTPRequestFromContext and the
// request Context through FromContext.
func (a *App) newClient(r *http.Request) *gql.Client {
	var opts []gql.ClientOption
	if a.metrics != nil {
		opts = append(opts, gql.WithObserver(a.metrics.ObserveOperation))
	}

	transport := a.transport
	if schema := a.settings.graphql.schema; schema != nil {
		transport = gql.NewLocalTransport(*schema, gql.WithRequest(r))
	}
	return gql.NewClient(transport, opts...)
}
