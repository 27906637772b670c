package vdom

import "strings"

func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// AttrOf creates an arbitrary attribute.
func AttrOf(key string, value any) Attr { return attr(key, value) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Key sets the reconciliation key.
func Key(key string) Attr { return attr("key", key) }

func Href(url string) Attr      { return attr("href", url) }
func Src(url string) Attr       { return attr("src", url) }
func Alt(text string) Attr      { return attr("alt", text) }
func Type(t string) Attr        { return attr("type", t) }
func Name(name string) Attr     { return attr("name", name) }
func Value(value string) Attr   { return attr("value", value) }
func Action(url string) Attr    { return attr("action", url) }
func Method(method string) Attr { return attr("method", method) }
func Disabled(b bool) Attr      { return attr("disabled", b) }
func Checked(b bool) Attr       { return attr("checked", b) }

// DangerouslySetInnerHTML renders html verbatim as the element content.
func DangerouslySetInnerHTML(html string) Attr { return attr("dangerouslySetInnerHTML", html) }
