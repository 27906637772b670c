// Package vdom provides the view tree rendered by ssrkit.
//
// VNode is the fundamental building block representing elements, text,
// fragments, components, raw HTML and route status markers. Elements are
// created with variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Text("Content")),
//	)
//
// # Status markers
//
// A KindStatus node records a route outcome (redirect or not-found) inside
// the returned tree. The render pipeline reads the first marker it finds
// instead of relying on mutation during rendering:
//
//	WithStatus(http.StatusNotFound, "", H1(Text("Not here")))
package vdom
