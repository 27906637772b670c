package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ssrkit/ssrkit/pkg/vdom"
)

func TestRenderDocument(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	var buf bytes.Buffer

	doc := Document{
		Body:        vdom.H1(vdom.Text("Hello")),
		Title:       "Home",
		Meta:        []MetaTag{{Name: "description", Content: "A page"}},
		StyleSheets: []string{"/assets/css/style.css"},
		Globals: []Global{
			{Name: "webpackManifest", Value: map[string]string{"0": "0.abc.js"}},
			{Name: "__STATE__", Value: map[string]any{"counter": map[string]int{"count": 1}}},
		},
		Scripts: []ScriptTag{{Src: "/vendor.js", Defer: true}, {Src: "/browser.js", Defer: true}},
	}

	if err := r.RenderDocument(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	checks := []string{
		"<!DOCTYPE html>\n",
		`<html lang="en" prefix="og: http://ogp.me/ns#">`,
		`<meta charset="utf-8">`,
		`<meta http-equiv="X-UA-Compatible" content="IE=edge">`,
		`<meta http-equiv="Content-Language" content="en">`,
		`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		`<meta name="description" content="A page">`,
		`<link rel="stylesheet" href="/assets/css/style.css">`,
		"<title>Home</title>",
		`<div id="main"><h1>Hello</h1></div>`,
		`<script>window.webpackManifest={"0":"0.abc.js"};window.__STATE__={"counter":{"count":1}};</script>`,
		`<script src="/vendor.js" defer></script>`,
		"</body>\n</html>\n",
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q\n%s", want, html)
		}
	}

	if strings.Index(html, "/vendor.js") > strings.Index(html, "/browser.js") {
		t.Error("scripts should keep their order")
	}
	if strings.Index(html, "<title>") < strings.Index(html, "stylesheet") {
		t.Error("title should follow the stylesheet link")
	}
}

func TestRenderDocumentGlobalsEscaping(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	var buf bytes.Buffer

	doc := Document{
		Globals: []Global{{Name: "__STATE__", Value: map[string]any{
			"msg": "</script><script>alert(1)</script>",
			"raw": json.RawMessage(`{"html":"<b>"}`),
		}}},
	}
	if err := r.RenderDocument(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "</script><script>alert") {
		t.Error("state must not be able to close the script element")
	}
	if !strings.Contains(html, `\u003c/script\u003e`) || !strings.Contains(html, `\u003cb\u003e`) {
		t.Errorf("expected unicode escapes in %s", html)
	}
}

func TestRenderDocumentInvalidGlobal(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	err := r.RenderDocument(&bytes.Buffer{}, Document{Globals: []Global{{Name: "a;alert(1)", Value: 1}}})
	if err == nil {
		t.Fatal("expected error for invalid global name")
	}
}

func TestRenderDocumentCustomLangAndMount(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	var buf bytes.Buffer

	if err := r.RenderDocument(&buf, Document{Lang: "fr", MountID: "app", Title: "<T>"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{`lang="fr"`, `content="fr"`, `<div id="app"></div>`, "<title>&lt;T&gt;</title>"} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

type failingWriter struct {
	failAfter int
	writes    int
}

var errWriteFailed = errors.New("write failed")

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.failAfter {
		return 0, errWriteFailed
	}
	return len(p), nil
}

func TestRenderDocumentWriteErrors(t *testing.T) {
	doc := Document{
		Body:    vdom.Div(vdom.Text("x")),
		Title:   "t",
		Globals: []Global{{Name: "a", Value: 1}},
		Scripts: []ScriptTag{{Src: "/a.js", Defer: true}},
	}

	// Count the writes of a successful render, then fail at every position.
	counter := &failingWriter{failAfter: 1 << 30}
	if err := NewRenderer(RendererConfig{}).RenderDocument(counter, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < counter.writes; i++ {
		w := &failingWriter{failAfter: i}
		err := NewRenderer(RendererConfig{}).RenderDocument(w, doc)
		if !errors.Is(err, errWriteFailed) {
			t.Fatalf("failAfter=%d: err = %v, want errWriteFailed", i, err)
		}
	}
}
