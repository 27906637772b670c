// Package render turns view trees into streamed HTML documents.
//
// The package has three parts:
//
//   - Renderer converts VNode trees to HTML with text and attribute escaping,
//     void elements and boolean attributes handled.
//   - Document and StreamingRenderer write the full page: head metadata,
//     the markup inside the mount div, window globals and deferred scripts,
//     flushing after each section.
//   - Pipeline runs the fixed-point render loop: render, collect pending
//     data operations, await them, repeat until nothing new is pending.
//
// # Pipeline
//
//	p := &render.Pipeline{MaxPasses: 4}
//	res, err := p.Run(ctx, func(ctx context.Context, pass int) (*vdom.VNode, []render.Operation, error) {
//	    return renderOnce(ctx)
//	})
//
// The returned Outcome is derived from status markers in the final tree
// (see vdom.WithStatus), never from state mutated during rendering.
// Exceeding MaxPasses yields ErrNoConvergence.
//
// # Streaming
//
// Writes should go through Guard so a disconnected client is not written
// to:
//
//	gw := render.Guard(r.Context(), w)
//	err := render.NewStreamingRenderer(gw, render.RendererConfig{}).RenderDocument(doc)
//
// # Security
//
// All text content is escaped by default. Raw HTML can be inserted using
// KindRaw nodes, but should only be used with trusted content. Window
// globals are JSON encoded with HTML-significant characters escaped.
package render
