package ssrkit

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run serves until ctx is done or the process receives SIGINT/SIGTERM,
// then shuts down gracefully. It starts the HTTP listener on Addr unless
// HTTP is disabled, the HTTPS listener on TLSAddr when TLS material is
// configured, and the live reload watcher in development.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listeners, err := a.listen()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		srv := a.newServer(l.tls)
		g.Go(func() error {
			a.logger.Info("server starting", "address", l.ln.Addr().String(), "tls", l.tls != nil)
			if err := srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	if a.reload != nil {
		g.Go(func() error {
			if err := a.reload.Run(gctx); err != nil {
				a.logger.Warn("live reload stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down...")
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

type listener struct {
	ln  net.Listener
	tls *tls.Config
}

func (a *App) listen() ([]listener, error) {
	var out []listener
	closeAll := func() {
		for _, l := range out {
			l.ln.Close()
		}
	}

	if !a.settings.tls.disableHTTP {
		ln, err := net.Listen("tcp", a.config.Addr)
		if err != nil {
			return nil, fmt.Errorf("ssrkit: listen on %s: %w", a.config.Addr, err)
		}
		out = append(out, listener{ln: ln})
	}

	if a.settings.TLSEnabled() && a.config.TLSAddr != "" {
		cfg, err := a.tlsConfig()
		if err != nil {
			closeAll()
			return nil, err
		}
		ln, err := net.Listen("tcp", a.config.TLSAddr)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("ssrkit: listen on %s: %w", a.config.TLSAddr, err)
		}
		out = append(out, listener{ln: tls.NewListener(ln, cfg), tls: cfg})
	}

	if len(out) == 0 {
		return nil, errors.New("ssrkit: HTTP is disabled and no TLS listener is configured")
	}
	return out, nil
}

func (a *App) tlsConfig() (*tls.Config, error) {
	t := a.settings.tls
	if t.config != nil {
		return t.config.Clone(), nil
	}
	cert, err := tls.LoadX509KeyPair(t.certFile, t.keyFile)
	if err != nil {
		return nil, fmt.Errorf("ssrkit: load TLS key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (a *App) newServer(cfg *tls.Config) *http.Server {
	srv := &http.Server{
		Handler:           a,
		TLSConfig:         cfg,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	a.mu.Lock()
	a.servers = append(a.servers, srv)
	a.mu.Unlock()
	return srv
}

// Shutdown gracefully stops every listener started by Run.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.ShutdownTimeout)
	defer cancel()

	if a.reload != nil {
		a.reload.Server().Close()
	}

	a.mu.Lock()
	servers := a.servers
	a.servers = nil
	a.mu.Unlock()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("shutdown error", "error", err)
		return err
	}
	a.logger.Info("server shutdown complete")
	return nil
}
