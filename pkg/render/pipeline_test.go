package render

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// fakeData resolves keys on demand and renders one Li per key.
type fakeData struct {
	mu       sync.Mutex
	resolved map[string]bool
	runs     atomic.Int32
}

func (f *fakeData) pass(keys ...string) PassFunc {
	return func(ctx context.Context, pass int) (*vdom.VNode, []Operation, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var ops []Operation
		items := vdom.Ul()
		for _, k := range keys {
			if f.resolved[k] {
				items.Children = append(items.Children, vdom.Li(vdom.Text(k)))
				continue
			}
			key := k
			ops = append(ops, Operation{Key: key, Run: func(ctx context.Context) error {
				f.runs.Add(1)
				f.mu.Lock()
				f.resolved[key] = true
				f.mu.Unlock()
				return nil
			}})
		}
		return items, ops, nil
	}
}

func TestPipelineConvergesInOneExtraPass(t *testing.T) {
	data := &fakeData{resolved: map[string]bool{}}
	p := &Pipeline{}

	res, err := p.Run(context.Background(), data.pass("a", "b", "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Passes != 2 {
		t.Errorf("Passes = %d, want 2", res.Passes)
	}
	if got := data.runs.Load(); got != 2 {
		t.Errorf("operations run = %d, want 2 (duplicate key runs once)", got)
	}

	ok, isOK := res.Outcome.(OutcomeOK)
	if !isOK {
		t.Fatalf("Outcome = %T, want OutcomeOK", res.Outcome)
	}
	if ok.Status != http.StatusOK || len(ok.Tree.Children) != 3 {
		t.Errorf("OutcomeOK = status %d, %d items", ok.Status, len(ok.Tree.Children))
	}

	// Already resolved: a fresh run needs a single pass.
	res, err = p.Run(context.Background(), data.pass("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Passes != 1 {
		t.Errorf("Passes = %d, want 1", res.Passes)
	}
}

func TestPipelineNoConvergence(t *testing.T) {
	var passes int
	endless := func(ctx context.Context, pass int) (*vdom.VNode, []Operation, error) {
		passes = pass
		return vdom.Div(), []Operation{{Key: "k", Run: func(context.Context) error { return nil }}}, nil
	}

	_, err := (&Pipeline{MaxPasses: 3}).Run(context.Background(), endless)
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("err = %v, want ErrNoConvergence", err)
	}
	if passes != 3 {
		t.Errorf("passes = %d, want 3", passes)
	}

	_, err = (&Pipeline{}).Run(context.Background(), endless)
	if !errors.Is(err, ErrNoConvergence) || passes != DefaultMaxPasses {
		t.Errorf("default cap: err = %v passes = %d", err, passes)
	}
}

func TestPipelineOperationError(t *testing.T) {
	boom := errors.New("boom")
	fn := func(ctx context.Context, pass int) (*vdom.VNode, []Operation, error) {
		return nil, []Operation{
			{Key: "bad", Run: func(context.Context) error { return boom }},
			{Key: "slow", Run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}},
		}, nil
	}

	_, err := (&Pipeline{}).Run(context.Background(), fn)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestPipelinePassError(t *testing.T) {
	boom := errors.New("render failed")
	_, err := (&Pipeline{}).Run(context.Background(), func(context.Context, int) (*vdom.VNode, []Operation, error) {
		return nil, nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want render failed", err)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		tree *vdom.VNode
		want Outcome
	}{
		{
			name: "no marker",
			tree: vdom.Div(),
			want: OutcomeOK{Status: http.StatusOK},
		},
		{
			name: "redirect",
			tree: vdom.Div(vdom.WithStatus(http.StatusFound, "/elsewhere")),
			want: OutcomeRedirect{Code: http.StatusFound, Location: "/elsewhere"},
		},
		{
			name: "nested redirect",
			tree: vdom.Div(vdom.Section(vdom.Ul(vdom.Li(vdom.WithStatus(http.StatusFound, "/elsewhere"))))),
			want: OutcomeRedirect{Code: http.StatusFound, Location: "/elsewhere"},
		},
		{
			name: "nested not found",
			tree: vdom.Div(vdom.Fragment(vdom.Span(vdom.WithStatus(http.StatusNotFound, "")))),
			want: OutcomeNotFound{},
		},
		{
			name: "permanent redirect",
			tree: vdom.WithStatus(http.StatusMovedPermanently, "/new"),
			want: OutcomeRedirect{Code: http.StatusMovedPermanently, Location: "/new"},
		},
		{
			name: "not found",
			tree: vdom.Div(vdom.WithStatus(http.StatusNotFound, "", vdom.Text("missing"))),
			want: OutcomeNotFound{},
		},
		{
			name: "first marker wins",
			tree: vdom.Div(
				vdom.WithStatus(http.StatusNotFound, ""),
				vdom.WithStatus(http.StatusFound, "/x"),
			),
			want: OutcomeNotFound{},
		},
		{
			name: "other status",
			tree: vdom.WithStatus(http.StatusGone, ""),
			want: OutcomeOK{Status: http.StatusGone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.tree)
			switch want := tt.want.(type) {
			case OutcomeOK:
				ok, isOK := got.(OutcomeOK)
				if !isOK || ok.Status != want.Status || ok.Tree != tt.tree {
					t.Errorf("Decide = %#v, want OK %d", got, want.Status)
				}
			case OutcomeRedirect:
				if got != want {
					t.Errorf("Decide = %#v, want %#v", got, want)
				}
			case OutcomeNotFound:
				nf, isNF := got.(OutcomeNotFound)
				if !isNF || nf.Tree != tt.tree {
					t.Errorf("Decide = %#v, want NotFound", got)
				}
			}
		})
	}
}
