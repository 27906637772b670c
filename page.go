package ssrkit

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ssrkit/ssrkit/internal/dev"
	"github.com/ssrkit/ssrkit/pkg/render"
	"github.com/ssrkit/ssrkit/pkg/vdom"
	"github.com/ssrkit/ssrkit/pkg/view"
)

// Window globals embedded in every page.
const (
	ChunkManifestGlobal = "webpackManifest"
	StateGlobal         = "__STATE__"
)

// renderPage is the render fallback. It renders the root view until its
// queries converge, then acts on the outcome: a redirect ends with no
// body, a not-found render goes to the 404 handler when one is set, and
// everything else streams the document.
func (a *App) renderPage(c *Context) error {
	env := view.Env{Request: c.Request(), Client: c.Client(), Store: c.Store()}
	res, err := view.Render(c.StdContext(), a.pipeline, a.root, env)
	if err != nil {
		a.recordRender(0, "error")
		return err
	}

	switch o := res.Outcome.(type) {
	case render.OutcomeRedirect:
		a.recordRender(res.Passes, "redirect")
		return c.Redirect(o.Code, o.Location)

	case render.OutcomeNotFound:
		a.recordRender(res.Passes, "not_found")
		if h := a.settings.notFound; h != nil {
			return h(c)
		}
		return a.writeDocument(c, http.StatusNotFound, o.Tree, res.Head)

	case render.OutcomeOK:
		a.recordRender(res.Passes, "ok")
		return a.writeDocument(c, o.Status, o.Tree, res.Head)
	}
	return fmt.Errorf("ssrkit: unexpected render outcome %T", res.Outcome)
}

func (a *App) recordRender(passes int, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordRender(passes, outcome)
	}
}

// document builds the page around tree: the bundle's stylesheets and
// scripts, the chunk manifest and the serialized store state.
func (a *App) document(c *Context, tree *vdom.VNode, head view.Head) (render.Document, error) {
	state, err := c.Store().Snapshot()
	if err != nil {
		return render.Document{}, fmt.Errorf("ssrkit: snapshot state: %w", err)
	}

	bundle := a.assets()
	var chunks any = map[string]string{}
	if m := bundle.Chunks(); m != nil {
		chunks = m
	}

	doc := render.Document{
		Body:        tree,
		Title:       head.Title,
		Meta:        head.Meta,
		Links:       head.Links,
		StyleSheets: bundle.StyleSheets(),
		Globals: []render.Global{
			{Name: ChunkManifestGlobal, Value: chunks},
			{Name: StateGlobal, Value: state},
		},
	}
	for _, src := range bundle.Scripts() {
		doc.Scripts = append(doc.Scripts, render.ScriptTag{Src: src, Defer: true})
	}
	if a.reload != nil {
		doc.Scripts = append(doc.Scripts, render.ScriptTag{Inline: dev.ClientScript()})
	}
	return doc, nil
}

// writeDocument streams the page. Once the client is gone nothing more is
// written and the render ends quietly.
func (a *App) writeDocument(c *Context, status int, tree *vdom.VNode, head view.Head) error {
	doc, err := a.document(c, tree, head)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	guarded := render.Guard(c.StdContext(), w)
	err = render.NewStreamingRenderer(guarded, render.RendererConfig{Pretty: a.config.Dev}).RenderDocument(doc)
	if errors.Is(err, render.ErrClientGone) {
		c.Logger().Debug("client went away during render", "path", c.Request().URL.Path, "error", err)
		return nil
	}
	return err
}
