package ssrkit

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ssrkit/ssrkit/internal/dev"
	"github.com/ssrkit/ssrkit/pkg/assets"
	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/middleware"
	"github.com/ssrkit/ssrkit/pkg/render"
	"github.com/ssrkit/ssrkit/pkg/static"
	"github.com/ssrkit/ssrkit/pkg/view"
)

// App is the HTTP side of the kit: it composes the middleware chain, the
// GraphQL endpoint, custom routes, static files and the render fallback
// into a single http.Handler.
//
//	settings := ssrkit.NewSettings()
//	settings.AddReducer("counter", counter)
//	app, err := ssrkit.New(Root, settings, ssrkit.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Run(ctx)
type App struct {
	root     view.View
	settings *Settings
	config   Config
	logger   *slog.Logger

	mux       *chi.Mux
	pipeline  *render.Pipeline
	bundle    *assets.Bundle
	files     *static.Handler
	parser    *bodyParser
	transport gql.Transport
	metrics   *middleware.Metrics
	reload    *dev.LiveReload

	mu      sync.Mutex
	servers []*http.Server
}

// New assembles an App rendering root. settings is frozen: further
// registration calls panic.
func New(root view.View, settings *Settings, cfg Config) (*App, error) {
	if root == nil {
		return nil, errors.New("ssrkit: root view must not be nil")
	}
	if settings == nil {
		settings = NewSettings()
	}
	settings.freeze()
	cfg = cfg.withDefaults()

	a := &App{
		root:     root,
		settings: settings,
		config:   cfg,
		logger:   cfg.Logger,
		pipeline: &render.Pipeline{MaxPasses: cfg.MaxPasses},
	}
	if cfg.TracerProvider != nil {
		a.pipeline.Tracer = cfg.TracerProvider.Tracer("github.com/ssrkit/ssrkit/pkg/render")
	}

	if err := a.loadAssets(); err != nil {
		return nil, err
	}
	a.setupStatic()
	if settings.bodyParser != nil {
		a.parser = newBodyParser(*settings.bodyParser)
	}
	if cfg.Metrics {
		a.metrics = middleware.NewMetrics()
	}
	if cfg.Reload {
		a.reload = dev.NewLiveReload(dev.WatcherConfig{
			Paths:    cfg.Watch,
			Ignore:   cfg.WatchIgnore,
			Debounce: cfg.WatchDebounce,
			Logger:   a.logger.With("component", "reload"),
		}, a.reloadAssets)
	}
	a.transport = a.newTransport()
	a.mux = a.routes()
	return a, nil
}

func (a *App) loadAssets() error {
	switch {
	case a.config.Assets != nil:
		a.bundle = a.config.Assets
	case a.config.Dev:
		a.bundle = assets.Dev()
	default:
		bundle, err := assets.LoadBundle(a.config.Dist)
		if err != nil {
			return fmt.Errorf("ssrkit: %w", err)
		}
		a.bundle = bundle
	}
	return nil
}

// reloadAssets re-reads the manifests after a production build in watch
// mode. Development bundles are fixed and need no reload.
func (a *App) reloadAssets() error {
	if a.config.Dev || a.config.Assets != nil {
		return nil
	}
	bundle, err := assets.LoadBundle(a.config.Dist)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.bundle = bundle
	a.mu.Unlock()
	return nil
}

func (a *App) assets() *assets.Bundle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bundle
}

func (a *App) setupStatic() {
	source := a.config.Static
	if source == nil {
		source = static.NewDirSource(a.config.StaticDir)
	}
	cache := static.CacheProduction
	if a.config.Dev {
		cache = static.CacheNone
	}
	a.files = static.New(source,
		static.WithPrefix(a.config.StaticPrefix),
		static.WithCacheControl(cache),
		static.WithLogger(a.logger.With("component", "static")),
	)
}

// routes builds the router. Middleware order: request id and health
// check, CORS, error trap, timing, metrics and tracing, client/store
// injection, before middleware, TLS redirect, security headers, after
// middleware. Then GraphQL, custom routes, static files and the render
// fallback.
func (a *App) routes() *chi.Mux {
	s := a.settings
	r := chi.NewRouter()

	r.Use(requestID, a.health)
	if s.cors != nil {
		r.Use(cors.Handler(*s.cors))
	}
	r.Use(a.trap, responseTime)
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
	}
	var otelOpts []middleware.OTelOption
	if a.config.TracerProvider != nil {
		otelOpts = append(otelOpts, middleware.WithTracerProvider(a.config.TracerProvider))
	}
	r.Use(middleware.OpenTelemetry(otelOpts...))
	r.Use(a.inject)
	for _, mw := range s.before {
		r.Use(adapt(mw))
	}
	if s.tls.forceSSL {
		r.Use(a.forceSSL())
	}
	if s.security != nil {
		r.Use(a.securityHeaders())
	}
	for _, mw := range s.after {
		r.Use(adapt(mw))
	}

	if a.metrics != nil {
		r.Method(http.MethodGet, a.config.MetricsPath, a.metrics.Handler())
	}
	if a.reload != nil {
		r.Method(http.MethodGet, dev.ReloadPath, a.reload.Handler())
	}
	a.mountGraphQL(r)
	for _, rt := range s.routes {
		r.Method(rt.method, rt.path, handle(rt.handler))
	}
	for _, hook := range s.appHooks {
		hook(r)
	}

	fallback := a.files.Middleware(handle(a.renderPage))
	r.Method(http.MethodGet, "/*", fallback)
	r.Method(http.MethodHead, "/*", fallback)
	return r
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Handler returns the App as an http.Handler.
func (a *App) Handler() http.Handler {
	return a
}

// Router returns the underlying chi router.
func (a *App) Router() *chi.Mux {
	return a.mux
}

// Settings returns the frozen settings.
func (a *App) Settings() *Settings {
	return a.settings
}

// Config returns the app configuration with defaults applied.
func (a *App) Config() Config {
	return a.config
}

// Metrics returns the Prometheus collectors, or nil when disabled.
func (a *App) Metrics() *middleware.Metrics {
	return a.metrics
}
