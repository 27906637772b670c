package dev

import (
	"context"
	"log/slog"
	"net/http"
)

// LiveReload watches the build output and tells connected browsers to
// reload when it changes.
type LiveReload struct {
	server     *ReloadServer
	watcher    *Watcher
	onManifest func() error
	logger     *slog.Logger
}

// NewLiveReload creates a live reloader. onManifest runs before browsers
// are notified of a manifest change, so pages pick up the new bundle; an
// error is shown in the browser overlay instead of reloading.
func NewLiveReload(config WatcherConfig, onManifest func() error) *LiveReload {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &LiveReload{
		server:     NewReloadServer(logger),
		watcher:    NewWatcher(config),
		onManifest: onManifest,
		logger:     logger.With("component", "livereload"),
	}
	l.watcher.OnChange(l.handle)
	return l
}

// Handler returns the websocket handler to mount at ReloadPath.
func (l *LiveReload) Handler() http.Handler {
	return l.server
}

// Server returns the underlying reload server.
func (l *LiveReload) Server() *ReloadServer {
	return l.server
}

// Run watches until ctx is done, then disconnects all browsers.
func (l *LiveReload) Run(ctx context.Context) error {
	defer l.server.Close()
	return l.watcher.Run(ctx)
}

func (l *LiveReload) handle(changes []Change) {
	manifest := false
	cssOnly := true
	for _, c := range changes {
		if c.Type == ChangeManifest {
			manifest = true
		}
		if c.Type != ChangeCSS {
			cssOnly = false
		}
	}

	if manifest && l.onManifest != nil {
		if err := l.onManifest(); err != nil {
			l.logger.Error("reload manifest", "error", err)
			l.server.NotifyError(err.Error())
			return
		}
		l.server.ClearError()
	}

	if cssOnly {
		l.logger.Debug("stylesheets changed", "files", len(changes))
		l.server.NotifyCSS(changes[0].Path)
		return
	}

	l.logger.Info("build output changed, reloading browsers", "files", len(changes))
	l.server.NotifyReload()
}
