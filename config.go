package ssrkit

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ssrkit/ssrkit/pkg/assets"
	"github.com/ssrkit/ssrkit/pkg/static"
)

// Config configures how an App serves. Settings says what it serves.
type Config struct {
	// Dev selects development behavior: fixed dev asset paths, uncached
	// static files, pretty HTML and no HSTS.
	Dev bool

	// Addr is the HTTP listen address. Default: "localhost:8081".
	Addr string

	// TLSAddr is the HTTPS listen address, used when Settings carries TLS
	// material. Empty disables the HTTPS listener.
	TLSAddr string

	// ServerURL is the public URL of the server. A GraphQL endpoint given
	// as a path is resolved against it.
	ServerURL string

	// Dist is the build output directory holding manifest.json and
	// chunk-manifest.json. Default: "dist".
	Dist string

	// StaticDir is served before the render fallback. Default: Dist.
	StaticDir string

	// StaticPrefix is the URL prefix of static files. Default: "/".
	StaticPrefix string

	// Static overrides StaticDir, e.g. with a static.S3Source.
	Static static.Source

	// Assets are the stylesheets and scripts referenced by every page.
	// Default: assets.Dev() in development, loaded from Dist otherwise.
	Assets *assets.Bundle

	// MaxPasses bounds the render passes per request. Default: 4.
	MaxPasses int

	// Metrics exposes Prometheus metrics at MetricsPath.
	Metrics     bool
	MetricsPath string

	// TracerProvider records request and render spans. Default: the
	// global provider.
	TracerProvider trace.TracerProvider

	// Reload enables the live reload websocket and watches Watch.
	// WatchIgnore adds glob patterns to skip; WatchDebounce coalesces
	// bursts of file events.
	Reload        bool
	Watch         []string
	WatchIgnore   []string
	WatchDebounce time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		Dev:             true,
		Addr:            "localhost:8081",
		ServerURL:       "http://localhost:8081",
		Dist:            "dist",
		StaticPrefix:    "/",
		MetricsPath:     "/metrics",
		ShutdownTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://" + c.Addr
	}
	if c.Dist == "" {
		c.Dist = def.Dist
	}
	if c.StaticDir == "" {
		c.StaticDir = c.Dist
	}
	if c.StaticPrefix == "" {
		c.StaticPrefix = def.StaticPrefix
	}
	if c.MetricsPath == "" {
		c.MetricsPath = def.MetricsPath
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
