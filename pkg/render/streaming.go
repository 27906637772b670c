package render

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
)

// ErrClientGone is returned by a guarded writer once the request context
// is done or a write to the connection failed. Nothing further is written.
var ErrClientGone = errors.New("render: client connection closed")

// StreamingRenderer wraps Renderer with chunked output support.
// It flushes content incrementally for faster time-to-first-byte.
type StreamingRenderer struct {
	*Renderer
	flusher http.Flusher
	w       io.Writer
}

// NewStreamingRenderer creates a streaming renderer. If w implements
// http.Flusher, content is flushed after the head, the markup and the
// closing section.
func NewStreamingRenderer(w io.Writer, config RendererConfig) *StreamingRenderer {
	flusher, _ := w.(http.Flusher)
	return &StreamingRenderer{
		Renderer: NewRenderer(config),
		flusher:  flusher,
		w:        w,
	}
}

// RenderDocument renders a complete HTML document with incremental flushing.
// The head section is flushed immediately so the browser can start
// fetching stylesheets while the body is still being written.
func (s *StreamingRenderer) RenderDocument(doc Document) error {
	if err := s.renderOpening(s.w, doc); err != nil {
		return err
	}
	s.flush()

	if err := s.renderMain(s.w, doc); err != nil {
		return err
	}
	s.flush()

	if err := s.renderClosing(s.w, doc); err != nil {
		return err
	}
	s.flush()

	return nil
}

// flush flushes the writer if it supports flushing.
func (s *StreamingRenderer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// GuardedWriter stops writing after the first failed write or once ctx is
// done, so a torn-down connection is never written to again.
type GuardedWriter struct {
	ctx     context.Context
	w       io.Writer
	flusher http.Flusher

	mu  sync.Mutex
	err error
}

// Guard wraps w for the lifetime of ctx.
func Guard(ctx context.Context, w io.Writer) *GuardedWriter {
	flusher, _ := w.(http.Flusher)
	return &GuardedWriter{ctx: ctx, w: w, flusher: flusher}
}

// Write implements io.Writer.
func (g *GuardedWriter) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return 0, g.err
	}
	if err := g.ctx.Err(); err != nil {
		g.err = errors.Join(ErrClientGone, err)
		return 0, g.err
	}
	n, err := g.w.Write(p)
	if err != nil {
		g.err = errors.Join(ErrClientGone, err)
		return n, g.err
	}
	return n, nil
}

// Flush implements http.Flusher. It is a no-op after a failure.
func (g *GuardedWriter) Flush() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil || g.flusher == nil || g.ctx.Err() != nil {
		return
	}
	g.flusher.Flush()
}

// Err returns the first error encountered, if any.
func (g *GuardedWriter) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// FlushableWriter wraps an io.Writer with optional flushing capability.
// This is useful for testing streaming behavior without using http.ResponseWriter.
type FlushableWriter struct {
	io.Writer
	FlushCount int
}

// Flush implements http.Flusher.
func (w *FlushableWriter) Flush() {
	w.FlushCount++
}
