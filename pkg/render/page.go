package render

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// DefaultMountID is the id of the element the rendered markup is placed in.
const DefaultMountID = "main"

// Document contains all data needed to render a complete HTML page.
type Document struct {
	// Body is the root VNode for the page content.
	Body *vdom.VNode

	// Title is the page title.
	Title string

	// Meta contains additional meta tags, written after the fixed ones.
	Meta []MetaTag

	// Links contains additional link tags (favicon, canonical...).
	Links []LinkTag

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Globals are assigned to window as JSON, in order, before the scripts
	// run. This is how the asset chunk manifest and the serialized state
	// reach the browser.
	Globals []Global

	// Scripts are written at the end of the body.
	Scripts []ScriptTag

	// Lang is the language of the document. Defaults to "en".
	Lang string

	// Prefix is the RDFa prefix attribute of the html element.
	// Defaults to the OpenGraph namespace.
	Prefix string

	// MountID is the id of the div wrapping Body. Defaults to "main".
	MountID string
}

// Global is a window property embedded in the page.
type Global struct {
	Name  string
	Value any
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name      string // name attribute
	Content   string // content attribute
	Property  string // property attribute (for OpenGraph)
	HTTPEquiv string // http-equiv attribute
	Charset   string // charset attribute
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel  string
	Href string
	Type string
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string // src attribute
	Type   string // type attribute
	Defer  bool   // defer attribute
	Async  bool   // async attribute
	Inline string // inline script content
}

var globalName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func (d *Document) lang() string {
	if d.Lang == "" {
		return "en"
	}
	return d.Lang
}

func (d *Document) prefix() string {
	if d.Prefix == "" {
		return "og: http://ogp.me/ns#"
	}
	return d.Prefix
}

func (d *Document) mountID() string {
	if d.MountID == "" {
		return DefaultMountID
	}
	return d.MountID
}

// RenderDocument renders a complete HTML document to the given writer.
func (r *Renderer) RenderDocument(w io.Writer, doc Document) error {
	if err := r.renderOpening(w, doc); err != nil {
		return err
	}
	if err := r.renderMain(w, doc); err != nil {
		return err
	}
	return r.renderClosing(w, doc)
}

// renderOpening writes everything up to and including the opening body tag.
func (r *Renderer) renderOpening(w io.Writer, doc Document) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<html lang="%s" prefix="%s">`+"\n",
		escapeAttr(doc.lang()), escapeAttr(doc.prefix())); err != nil {
		return err
	}
	if err := r.renderHead(w, doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "<body>\n")
	return err
}

func (r *Renderer) renderMain(w io.Writer, doc Document) error {
	if _, err := fmt.Fprintf(w, `<div id="%s">`, escapeAttr(doc.mountID())); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, doc.Body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</div>\n")
	return err
}

// renderClosing writes the globals, the scripts and the closing tags.
func (r *Renderer) renderClosing(w io.Writer, doc Document) error {
	if err := renderGlobals(w, doc.Globals); err != nil {
		return err
	}
	for _, script := range doc.Scripts {
		if err := r.renderScriptTag(w, script); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, doc Document) error {
	if _, err := io.WriteString(w, "<head>\n"); err != nil {
		return err
	}

	fixed := []MetaTag{
		{Charset: "utf-8"},
		{HTTPEquiv: "X-UA-Compatible", Content: "IE=edge"},
		{HTTPEquiv: "Content-Language", Content: doc.lang()},
		{Name: "viewport", Content: "width=device-width, initial-scale=1"},
	}
	for _, meta := range append(fixed, doc.Meta...) {
		if err := r.renderMetaTag(w, meta); err != nil {
			return err
		}
	}

	for _, link := range doc.Links {
		if err := r.renderLinkTag(w, link); err != nil {
			return err
		}
	}

	for _, href := range doc.StyleSheets {
		if err := r.renderLinkTag(w, LinkTag{Rel: "stylesheet", Href: href}); err != nil {
			return err
		}
	}

	if doc.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(doc.Title)); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderMetaTag renders a meta element.
func (r *Renderer) renderMetaTag(w io.Writer, meta MetaTag) error {
	if _, err := io.WriteString(w, "  <meta"); err != nil {
		return err
	}
	attrs := [][2]string{
		{"charset", meta.Charset},
		{"name", meta.Name},
		{"property", meta.Property},
		{"http-equiv", meta.HTTPEquiv},
		{"content", meta.Content},
	}
	if err := writeAttrs(w, attrs); err != nil {
		return err
	}
	_, err := io.WriteString(w, ">\n")
	return err
}

// renderLinkTag renders a link element.
func (r *Renderer) renderLinkTag(w io.Writer, link LinkTag) error {
	if _, err := io.WriteString(w, "  <link"); err != nil {
		return err
	}
	attrs := [][2]string{
		{"rel", link.Rel},
		{"href", link.Href},
		{"type", link.Type},
	}
	if err := writeAttrs(w, attrs); err != nil {
		return err
	}
	_, err := io.WriteString(w, ">\n")
	return err
}

// renderScriptTag renders a script element.
func (r *Renderer) renderScriptTag(w io.Writer, script ScriptTag) error {
	if _, err := io.WriteString(w, "<script"); err != nil {
		return err
	}
	if err := writeAttrs(w, [][2]string{{"src", script.Src}, {"type", script.Type}}); err != nil {
		return err
	}
	if script.Defer {
		if _, err := io.WriteString(w, " defer"); err != nil {
			return err
		}
	}
	if script.Async {
		if _, err := io.WriteString(w, " async"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, ">%s</script>\n", script.Inline); err != nil {
		return err
	}
	return nil
}

// renderGlobals writes a single inline script assigning each global.
// encoding/json escapes <, > and & so the payload cannot close the
// script element.
func renderGlobals(w io.Writer, globals []Global) error {
	if len(globals) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "<script>"); err != nil {
		return err
	}
	for _, g := range globals {
		if !globalName.MatchString(g.Name) {
			return fmt.Errorf("render: invalid global name %q", g.Name)
		}
		data, err := json.Marshal(g.Value)
		if err != nil {
			return fmt.Errorf("render: marshal global %s: %w", g.Name, err)
		}
		if _, err := fmt.Fprintf(w, "window.%s=%s;", g.Name, data); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</script>\n")
	return err
}

func writeAttrs(w io.Writer, attrs [][2]string) error {
	for _, a := range attrs {
		if a[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a[0], escapeAttr(a[1])); err != nil {
			return err
		}
	}
	return nil
}
