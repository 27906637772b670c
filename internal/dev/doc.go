// Package dev provides live reload for the development modes.
//
// The browser bundler writes its output to the dist directory. A Watcher
// observes it with fsnotify and reports debounced batches of changes; a
// ReloadServer pushes messages to every connected page over a websocket.
// LiveReload ties the two together:
//
//	lr := dev.NewLiveReload(dev.WatcherConfig{Paths: cfg.WatchPaths()}, reloadBundle)
//	r.Handle(dev.ReloadPath, lr.Handler())
//	go lr.Run(ctx)
//
// Pages include dev.ClientScript() as an inline script.
//
// # Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "reload"}                 // Triggers full page reload
//	{"type": "css", "file": "..."}     // Re-fetches stylesheets
//	{"type": "error", "error": "..."}  // Shows error overlay
//	{"type": "clear"}                  // Clears error overlay
package dev
