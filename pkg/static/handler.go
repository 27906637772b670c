package static

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// CacheControl determines caching behavior for static files.
type CacheControl int

const (
	// CacheNone marks responses as uncacheable, for development.
	CacheNone CacheControl = iota

	// CacheProduction caches fingerprinted files (app.3f2a9c1b.js) for a
	// year and everything else for an hour with revalidation.
	CacheProduction
)

// Option configures a Handler.
type Option func(*Handler)

// WithPrefix sets the URL prefix files are served under (default "/").
func WithPrefix(prefix string) Option {
	return func(h *Handler) {
		h.prefix = prefix
	}
}

// WithCacheControl sets the caching strategy.
func WithCacheControl(cc CacheControl) Option {
	return func(h *Handler) {
		h.cache = cc
	}
}

// WithHeaders adds headers to every served file.
func WithHeaders(headers map[string]string) Option {
	return func(h *Handler) {
		h.headers = headers
	}
}

// WithLogger sets the logger for source failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler serves files from a Source and falls through to the next
// handler when a file does not exist.
type Handler struct {
	source  Source
	prefix  string
	cache   CacheControl
	headers map[string]string
	logger  *slog.Logger
}

// New creates a static file handler.
func New(source Source, opts ...Option) *Handler {
	h := &Handler{source: source, prefix: "/"}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if !strings.HasSuffix(h.prefix, "/") {
		h.prefix += "/"
	}
	return h
}

// Middleware serves matching files and passes every other request on.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.ServeFile(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// ServeFile writes the file for r and reports whether it did. Requests
// other than GET and HEAD, unsafe paths and missing files are not served.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	rel, ok := h.RelPath(r.URL.Path)
	if !ok {
		return false
	}

	obj, err := h.source.Open(r.Context(), rel)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			h.logger.Warn("static source failed", "path", rel, "error", err)
		}
		return false
	}
	defer obj.Body.Close()

	h.applyCacheHeaders(w, rel)
	for key, value := range h.headers {
		w.Header().Set(key, value)
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.ETag != "" {
		w.Header().Set("ETag", obj.ETag)
	}

	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, rel, obj.ModTime, rs)
		return true
	}

	serveStream(w, r, rel, obj)
	return true
}

// serveStream writes a non-seekable body, handling If-None-Match only.
func serveStream(w http.ResponseWriter, r *http.Request, name string, obj *Object) {
	if obj.ETag != "" && r.Header.Get("If-None-Match") == obj.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if w.Header().Get("Content-Type") == "" {
		if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
			w.Header().Set("Content-Type", ctype)
		}
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	io.Copy(w, obj.Body)
}

// RelPath returns the sanitized source name for urlPath. It rejects
// traversal and absolute-path tricks so requests cannot escape the source
// root.
func (h *Handler) RelPath(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, h.prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, h.prefix)
	if rel == "" {
		return "", false
	}

	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, `\`) {
		return "", false
	}
	// "/static//etc/passwd" leaves "/etc/passwd" after stripping.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}
	return clean, true
}

func (h *Handler) applyCacheHeaders(w http.ResponseWriter, name string) {
	switch h.cache {
	case CacheNone:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	case CacheProduction:
		if isFingerprinted(name) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted reports whether the name carries a content hash of at
// least 8 hex characters before the extension, e.g. "browser.3f2a9c1b.js".
func isFingerprinted(name string) bool {
	parts := strings.Split(path.Base(name), ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
