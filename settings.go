package ssrkit

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/graphql-go/graphql"
	"github.com/unrolled/secure"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/store"
)

// DefaultGraphQLEndpoint is where the in-process GraphQL server is mounted.
const DefaultGraphQLEndpoint = "/graphql"

// route is a custom route registered with AddRoute.
type route struct {
	method  string
	path    string
	handler Handler
}

type graphQLSettings struct {
	endpoint   string
	schema     *graphql.Schema
	graphiql   bool
	middleware []gql.RequestMiddleware
	afterware  []gql.ResponseAfterware
}

type tlsSettings struct {
	certFile    string
	keyFile     string
	config      *tls.Config
	forceSSL    bool
	sslPort     int
	disableHTTP bool
}

// Settings is the application registry: reducers, routes, middleware,
// GraphQL wiring, handlers and server options. Build it once at startup
// and pass it to New, which freezes it; setters on a frozen Settings
// panic. Settings is not safe for concurrent use.
type Settings struct {
	frozen bool

	reducers        map[string]store.Slice
	storeMiddleware []store.Middleware
	routes          []route
	before          []Middleware
	after           []Middleware
	graphql         graphQLSettings
	notFound        NotFoundHandler
	onError         ErrorHandler
	tls             tlsSettings
	cors            *cors.Options
	bodyParser      *BodyParserOptions
	security        *secure.Options
	appHooks        []func(*chi.Mux)
}

// NewSettings returns a registry with the defaults: CORS, body parsing
// and security headers enabled, GraphQL endpoint "/graphql".
func NewSettings() *Settings {
	corsOpts := DefaultCORSOptions()
	bodyOpts := DefaultBodyParserOptions()
	secOpts := DefaultSecurityOptions()
	return &Settings{
		reducers:   make(map[string]store.Slice),
		graphql:    graphQLSettings{endpoint: DefaultGraphQLEndpoint},
		cors:       &corsOpts,
		bodyParser: &bodyOpts,
		security:   &secOpts,
	}
}

// DefaultCORSOptions allows every origin with the common methods.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPost, http.MethodDelete, http.MethodPatch,
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}
}

// DefaultSecurityOptions returns the hardening headers sent by default.
func DefaultSecurityOptions() secure.Options {
	return secure.Options{
		CustomFrameOptionsValue: "SAMEORIGIN",
		ContentTypeNosniff:      true,
		BrowserXssFilter:        true,
		STSSeconds:              15552000,
		STSIncludeSubdomains:    true,
		ReferrerPolicy:          "no-referrer",
	}
}

func (s *Settings) mutable(op string) {
	if s.frozen {
		panic(fmt.Sprintf("ssrkit: %s called after the app was created", op))
	}
}

func (s *Settings) freeze() { s.frozen = true }

// AddReducer registers a store slice under name.
func (s *Settings) AddReducer(name string, slice store.Slice) {
	s.mutable("AddReducer")
	switch {
	case slice == nil:
		panic(fmt.Sprintf("ssrkit: can't add reducer for '%s' - slice must not be nil", name))
	case name == "":
		panic("ssrkit: can't add reducer for '' - name must not be empty")
	case name == store.ReservedSlice:
		panic(fmt.Sprintf("ssrkit: can't add reducer for '%s' - name is reserved for the GraphQL cache", name))
	}
	if _, ok := s.reducers[name]; ok {
		panic(fmt.Sprintf("ssrkit: can't add reducer for '%s' - already registered", name))
	}
	s.reducers[name] = slice
}

// AddStoreMiddleware adds dispatch middleware to every request's store.
func (s *Settings) AddStoreMiddleware(mw ...store.Middleware) {
	s.mutable("AddStoreMiddleware")
	for _, m := range mw {
		if m == nil {
			panic("ssrkit: store middleware must not be nil")
		}
	}
	s.storeMiddleware = append(s.storeMiddleware, mw...)
}

var routeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// AddRoute registers a custom route. Paths use chi patterns
// ("/users/{id}"). Custom routes take precedence over the render fallback.
func (s *Settings) AddRoute(method, path string, h Handler) {
	s.mutable("AddRoute")
	method = strings.ToUpper(method)
	if !routeMethods[method] {
		panic(fmt.Sprintf("ssrkit: can't add route %s %s - unknown method", method, path))
	}
	if !strings.HasPrefix(path, "/") {
		panic(fmt.Sprintf("ssrkit: can't add route %s %s - path must start with '/'", method, path))
	}
	if h == nil {
		panic(fmt.Sprintf("ssrkit: can't add route %s %s - handler must not be nil", method, path))
	}
	s.routes = append(s.routes, route{method: method, path: path, handler: h})
}

// AddGetRoute registers a GET route.
func (s *Settings) AddGetRoute(path string, h Handler) { s.AddRoute(http.MethodGet, path, h) }

// AddPostRoute registers a POST route.
func (s *Settings) AddPostRoute(path string, h Handler) { s.AddRoute(http.MethodPost, path, h) }

// AddPutRoute registers a PUT route.
func (s *Settings) AddPutRoute(path string, h Handler) { s.AddRoute(http.MethodPut, path, h) }

// AddPatchRoute registers a PATCH route.
func (s *Settings) AddPatchRoute(path string, h Handler) { s.AddRoute(http.MethodPatch, path, h) }

// AddDeleteRoute registers a DELETE route.
func (s *Settings) AddDeleteRoute(path string, h Handler) { s.AddRoute(http.MethodDelete, path, h) }

// AddMiddleware adds middleware running after the security headers, in
// registration order.
func (s *Settings) AddMiddleware(mw ...Middleware) {
	s.mutable("AddMiddleware")
	s.after = append(s.after, checkMiddleware(mw)...)
}

// AddBeforeMiddleware adds middleware running right after the client and
// store are attached, before the TLS redirect and security headers.
func (s *Settings) AddBeforeMiddleware(mw ...Middleware) {
	s.mutable("AddBeforeMiddleware")
	s.before = append(s.before, checkMiddleware(mw)...)
}

func checkMiddleware(mw []Middleware) []Middleware {
	for _, m := range mw {
		if m == nil {
			panic("ssrkit: middleware must not be nil")
		}
	}
	return mw
}

// GraphQLOption configures the in-process GraphQL server.
type GraphQLOption func(*graphQLSettings)

// WithGraphQLEndpoint mounts the server at endpoint instead of "/graphql".
func WithGraphQLEndpoint(endpoint string) GraphQLOption {
	return func(g *graphQLSettings) {
		g.endpoint = endpoint
	}
}

// WithGraphiQL turns the GraphiQL explorer on GET requests on or off.
func WithGraphiQL(enabled bool) GraphQLOption {
	return func(g *graphQLSettings) {
		g.graphiql = enabled
	}
}

// EnableGraphQLServer serves schema at the GraphQL endpoint and resolves
// server-side render queries in-process against it.
func (s *Settings) EnableGraphQLServer(schema graphql.Schema, opts ...GraphQLOption) {
	s.mutable("EnableGraphQLServer")
	s.graphql.schema = &schema
	s.graphql.graphiql = true
	for _, opt := range opts {
		opt(&s.graphql)
	}
	if !strings.HasPrefix(s.graphql.endpoint, "/") {
		panic(fmt.Sprintf("ssrkit: GraphQL endpoint %q must be a path", s.graphql.endpoint))
	}
}

// SetGraphQLSchema replaces the schema of an enabled GraphQL server.
func (s *Settings) SetGraphQLSchema(schema graphql.Schema) {
	s.mutable("SetGraphQLSchema")
	if s.graphql.schema == nil {
		panic("ssrkit: SetGraphQLSchema called before EnableGraphQLServer")
	}
	s.graphql.schema = &schema
}

// SetGraphQLEndpoint sets the endpoint render queries are sent to when no
// in-process server is enabled. A path is resolved against the server URL.
func (s *Settings) SetGraphQLEndpoint(uri string) {
	s.mutable("SetGraphQLEndpoint")
	if uri == "" {
		panic("ssrkit: GraphQL endpoint must not be empty")
	}
	s.graphql.endpoint = uri
}

// AddGraphQLMiddleware adds a hook run on every outgoing GraphQL request.
func (s *Settings) AddGraphQLMiddleware(mw gql.RequestMiddleware) {
	s.mutable("AddGraphQLMiddleware")
	if mw == nil {
		panic("ssrkit: GraphQL middleware must not be nil")
	}
	s.graphql.middleware = append(s.graphql.middleware, mw)
}

// AddGraphQLAfterware adds a hook run on every GraphQL response.
func (s *Settings) AddGraphQLAfterware(aw gql.ResponseAfterware) {
	s.mutable("AddGraphQLAfterware")
	if aw == nil {
		panic("ssrkit: GraphQL afterware must not be nil")
	}
	s.graphql.afterware = append(s.graphql.afterware, aw)
}

// Set404Handler sets the handler taking over not-found renders.
func (s *Settings) Set404Handler(h NotFoundHandler) {
	s.mutable("Set404Handler")
	if h == nil {
		panic("ssrkit: 404 handler must be a function")
	}
	s.notFound = h
}

// SetErrorHandler sets the handler for failed requests.
func (s *Settings) SetErrorHandler(h ErrorHandler) {
	s.mutable("SetErrorHandler")
	if h == nil {
		panic("ssrkit: error handler must be a function")
	}
	s.onError = h
}

// EnableSSL serves HTTPS with the given certificate and key files.
func (s *Settings) EnableSSL(certFile, keyFile string) {
	s.mutable("EnableSSL")
	if certFile == "" || keyFile == "" {
		panic("ssrkit: EnableSSL needs both a certificate and a key file")
	}
	s.tls.certFile, s.tls.keyFile = certFile, keyFile
}

// SetTLSConfig serves HTTPS with cfg, which must carry certificates.
func (s *Settings) SetTLSConfig(cfg *tls.Config) {
	s.mutable("SetTLSConfig")
	if cfg == nil {
		panic("ssrkit: TLS config must not be nil")
	}
	s.tls.config = cfg
}

// ForceSSL redirects plain HTTP requests to HTTPS on port.
func (s *Settings) ForceSSL(port int) {
	s.mutable("ForceSSL")
	if port <= 0 || port > 65535 {
		panic(fmt.Sprintf("ssrkit: ForceSSL port %d out of range", port))
	}
	s.tls.forceSSL = true
	s.tls.sslPort = port
}

// DisableHTTP only starts the HTTPS listener.
func (s *Settings) DisableHTTP() {
	s.mutable("DisableHTTP")
	s.tls.disableHTTP = true
}

// EnableCORS replaces the CORS options.
func (s *Settings) EnableCORS(opts cors.Options) {
	s.mutable("EnableCORS")
	s.cors = &opts
}

// DisableCORS turns CORS handling off.
func (s *Settings) DisableCORS() {
	s.mutable("DisableCORS")
	s.cors = nil
}

// DisableBodyParser turns request body parsing off.
func (s *Settings) DisableBodyParser() {
	s.mutable("DisableBodyParser")
	s.bodyParser = nil
}

// SetBodyParserOptions enables body parsing with opts.
func (s *Settings) SetBodyParserOptions(opts BodyParserOptions) {
	s.mutable("SetBodyParserOptions")
	s.bodyParser = &opts
}

// EnableSecurityHeaders replaces the security header options.
func (s *Settings) EnableSecurityHeaders(opts secure.Options) {
	s.mutable("EnableSecurityHeaders")
	s.security = &opts
}

// DisableSecurityHeaders stops sending security headers.
func (s *Settings) DisableSecurityHeaders() {
	s.mutable("DisableSecurityHeaders")
	s.security = nil
}

// OnApp registers a hook receiving the router after the app is assembled,
// before the render fallback is mounted.
func (s *Settings) OnApp(fn func(*chi.Mux)) {
	s.mutable("OnApp")
	if fn == nil {
		panic("ssrkit: OnApp hook must not be nil")
	}
	s.appHooks = append(s.appHooks, fn)
}

// Reducers returns the registered reducer names, sorted.
func (s *Settings) Reducers() []string {
	names := make([]string, 0, len(s.reducers))
	for name := range s.reducers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GraphQLEndpoint returns the configured GraphQL endpoint.
func (s *Settings) GraphQLEndpoint() string { return s.graphql.endpoint }

// TLSEnabled reports whether certificate material was configured.
func (s *Settings) TLSEnabled() bool {
	return s.tls.config != nil || (s.tls.certFile != "" && s.tls.keyFile != "")
}
