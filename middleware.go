package ssrkit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/ssrkit/ssrkit/pkg/store"
)

// requestID takes the request id from the X-Request-Id header, or
// generates one, and stores it where chi's GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(chimw.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(chimw.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// health answers /ping and /favicon.ico ahead of everything else. A
// favicon present in the static files is served; otherwise 204.
func (a *App) health(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		switch r.URL.Path {
		case "/ping":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("pong"))
		case "/favicon.ico":
			if a.files == nil || !a.files.ServeFile(w, r) {
				w.WriteHeader(http.StatusNoContent)
			}
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// trap creates the request Context and wraps the rest of the chain. Panics
// and errors left on the Context go to the error handler or, without one,
// are logged once and answered with a generic body.
func (a *App) trap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		c := newContext(w, r, a.logger)
		c.parser = a.parser

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				c.fail(&PanicError{Value: rec, Stack: debug.Stack()})
			}
			if err := c.takeErr(); err != nil {
				a.handleError(c, err, start)
			}
		}()

		next.ServeHTTP(c.ww, c.r)
	})
}

func (a *App) handleError(c *Context, err error, start time.Time) {
	c.w = c.ww
	if !c.Written() && c.ww.Header().Get("Response-Time") == "" {
		c.ww.Header().Set("Response-Time", formatMillis(time.Since(start)))
	}
	if h := a.settings.onError; h != nil {
		h(c, err)
		return
	}

	attrs := []any{
		"error", err,
		"method", c.r.Method,
		"path", c.r.URL.Path,
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	c.logger.Error("request failed", attrs...)

	if c.Written() {
		return
	}
	c.ww.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.ww.WriteHeader(statusOf(err))
	c.ww.Write([]byte(genericErrorBody))
}

// responseTime sets the Response-Time header when the response starts.
func responseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timedWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}

type timedWriter struct {
	http.ResponseWriter
	start time.Time
	done  bool
}

func (t *timedWriter) stamp() {
	if t.done {
		return
	}
	t.done = true
	t.Header().Set("Response-Time", formatMillis(time.Since(t.start)))
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1e3, 'f', -1, 64) + "ms"
}

func (t *timedWriter) WriteHeader(code int) {
	t.stamp()
	t.ResponseWriter.WriteHeader(code)
}

func (t *timedWriter) Write(p []byte) (int, error) {
	t.stamp()
	return t.ResponseWriter.Write(p)
}

func (t *timedWriter) Flush() {
	t.stamp()
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (t *timedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := t.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("ssrkit: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (t *timedWriter) Unwrap() http.ResponseWriter { return t.ResponseWriter }

// inject attaches a fresh GraphQL client and store to the Context.
func (a *App) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := bind(w, r)
		client := a.newClient(c.Request())
		st, err := store.New(client, a.settings.reducers, store.WithMiddleware(a.settings.storeMiddleware...))
		if err != nil {
			c.fail(fmt.Errorf("ssrkit: create store: %w", err))
			return
		}
		c.client, c.store = client, st
		next.ServeHTTP(w, c.Request())
	})
}

// forceSSL redirects plain HTTP requests to the HTTPS port.
func (a *App) forceSSL() func(http.Handler) http.Handler {
	port := a.settings.tls.sslPort
	hostFunc := secure.SSLHostFunc(func(host string) string {
		return sslHost(host, port)
	})
	s := secure.New(secure.Options{
		SSLRedirect:     true,
		SSLProxyHeaders: map[string]string{"X-Forwarded-Proto": "https"},
		SSLHostFunc:     &hostFunc,
	})
	return s.Handler
}

// sslHost replaces the port of host with port, dropping it for 443.
func sslHost(host string, port int) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if port == 443 {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// securityHeaders sets the hardening headers. Development skips HSTS.
func (a *App) securityHeaders() func(http.Handler) http.Handler {
	opts := *a.settings.security
	opts.IsDevelopment = a.config.Dev
	return secure.New(opts).Handler
}
