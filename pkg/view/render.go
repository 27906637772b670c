package view

import (
	"context"

	"github.com/ssrkit/ssrkit/pkg/render"
	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// Rendered is the result of rendering a view to convergence.
type Rendered struct {
	Outcome render.Outcome
	Head    Head
	Passes  int
}

// Render runs root through the pipeline. Every pass gets a fresh scope
// sharing env, so the head of the last pass is the one returned.
func Render(ctx context.Context, p *render.Pipeline, root View, env Env) (*Rendered, error) {
	var last *Scope
	res, err := p.Run(ctx, func(ctx context.Context, pass int) (*vdom.VNode, []render.Operation, error) {
		last = newScope(ctx, &env)
		tree := root(last)
		return tree, last.frame.pending, nil
	})
	if err != nil {
		return nil, err
	}
	return &Rendered{Outcome: res.Outcome, Head: last.frame.head, Passes: res.Passes}, nil
}
