package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// DefaultMaxPasses bounds the fixed-point render loop.
const DefaultMaxPasses = 4

// ErrNoConvergence is returned when the last allowed pass still discovered
// pending operations.
var ErrNoConvergence = errors.New("render: data dependencies did not converge")

const tracerName = "github.com/ssrkit/ssrkit/pkg/render"

// Operation is a data-fetch operation discovered during a render pass.
// Key identifies the operation; operations sharing a key in one pass run once.
type Operation struct {
	Key string
	Run func(ctx context.Context) error
}

// PassFunc renders the view tree once and reports the operations it is
// still waiting on. pass starts at 1.
type PassFunc func(ctx context.Context, pass int) (*vdom.VNode, []Operation, error)

// Pipeline runs render passes until no new operation is discovered.
type Pipeline struct {
	// MaxPasses is the maximum number of render passes per request.
	// Zero means DefaultMaxPasses.
	MaxPasses int

	// Tracer records a span per request and per pass. Defaults to the
	// global provider's tracer.
	Tracer trace.Tracer
}

// Result is the outcome of a pipeline run.
type Result struct {
	Outcome Outcome
	Passes  int
}

func (p *Pipeline) maxPasses() int {
	if p.MaxPasses <= 0 {
		return DefaultMaxPasses
	}
	return p.MaxPasses
}

func (p *Pipeline) tracer() trace.Tracer {
	if p.Tracer != nil {
		return p.Tracer
	}
	return otel.Tracer(tracerName)
}

// Run renders, awaits every pending operation, and repeats until a pass
// discovers nothing new. Operations of one pass run concurrently; passes
// are strictly sequential. The first failing operation cancels the others
// and its error is returned.
func (p *Pipeline) Run(ctx context.Context, fn PassFunc) (*Result, error) {
	ctx, span := p.tracer().Start(ctx, "render.pipeline")
	defer span.End()

	limit := p.maxPasses()
	for pass := 1; ; pass++ {
		tree, ops, err := fn(ctx, pass)
		if err != nil {
			recordError(span, err)
			return nil, err
		}

		if len(ops) == 0 {
			span.SetAttributes(attribute.Int("render.passes", pass))
			return &Result{Outcome: Decide(tree), Passes: pass}, nil
		}

		if pass >= limit {
			err := fmt.Errorf("%w: %d operations still pending after %d passes", ErrNoConvergence, len(ops), pass)
			recordError(span, err)
			return nil, err
		}

		if err := p.await(ctx, pass, ops); err != nil {
			recordError(span, err)
			return nil, err
		}
	}
}

func (p *Pipeline) await(ctx context.Context, pass int, ops []Operation) error {
	ctx, span := p.tracer().Start(ctx, "render.await", trace.WithAttributes(
		attribute.Int("render.pass", pass),
		attribute.Int("render.operations", len(ops)),
	))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if op.Key != "" {
			if seen[op.Key] {
				continue
			}
			seen[op.Key] = true
		}
		run := op.Run
		g.Go(func() error {
			return run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Outcome is the route result of a render: OutcomeOK, OutcomeRedirect or
// OutcomeNotFound.
type Outcome interface {
	isOutcome()
}

// OutcomeOK is a normal render. Status is 200 unless the tree carried a
// different non-redirect status marker.
type OutcomeOK struct {
	Tree   *vdom.VNode
	Status int
}

// OutcomeRedirect ends the response with a redirect and no body.
type OutcomeRedirect struct {
	Code     int
	Location string
}

// OutcomeNotFound is a render whose tree marked the route as missing.
type OutcomeNotFound struct {
	Tree *vdom.VNode
}

func (OutcomeOK) isOutcome()       {}
func (OutcomeRedirect) isOutcome() {}
func (OutcomeNotFound) isOutcome() {}

// Decide derives the outcome from the first status marker in the tree,
// in document order.
func Decide(tree *vdom.VNode) Outcome {
	var status *vdom.Status
	vdom.Walk(tree, func(n *vdom.VNode) bool {
		if status != nil {
			return false
		}
		if n.Kind == vdom.KindStatus && n.Status != nil {
			status = n.Status
			return false
		}
		return true
	})

	switch {
	case status == nil:
		return OutcomeOK{Tree: tree, Status: http.StatusOK}
	case isRedirect(status.Code):
		return OutcomeRedirect{Code: status.Code, Location: status.Location}
	case status.Code == http.StatusNotFound:
		return OutcomeNotFound{Tree: tree}
	default:
		return OutcomeOK{Tree: tree, Status: status.Code}
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
