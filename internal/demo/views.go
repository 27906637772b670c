package demo

import (
	"strconv"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/render"
	"github.com/ssrkit/ssrkit/pkg/vdom"
	"github.com/ssrkit/ssrkit/pkg/view"
)

var messageQuery = &gql.Request{
	Query:         "query Message($greeting: String) { message(greeting: $greeting) { text from } }",
	OperationName: "Message",
}

var pages = view.Switch(
	view.Route{Path: "/", View: Home},
	view.Route{Path: "/greet/{greeting}", View: Greet},
	view.Route{Path: "/about", View: About},
	view.Route{Path: "/home", View: func(s *view.Scope) *vdom.VNode {
		return view.Redirect("/", true)
	}},
	view.Route{Path: "/*", View: Missing},
)

// Root is the demo's root view.
func Root(s *view.Scope) *vdom.VNode {
	s.AddMeta(render.MetaTag{Name: "description", Content: "ssrkit demo"})
	return vdom.Div(vdom.Class("app"),
		vdom.Nav(
			vdom.Ul(
				vdom.Li(vdom.A(vdom.Href("/"), vdom.Text("Home"))),
				vdom.Li(vdom.A(vdom.Href("/greet/Howdy"), vdom.Text("Greet"))),
				vdom.Li(vdom.A(vdom.Href("/about"), vdom.Text("About"))),
			),
		),
		vdom.Main(pages(s)),
	)
}

// Home shows the message resolved during the render.
func Home(s *view.Scope) *vdom.VNode {
	s.SetTitle("ssrkit")
	return message(s, messageQuery)
}

// Greet shows the message with the greeting taken from the path.
func Greet(s *view.Scope) *vdom.VNode {
	greeting := s.Param("greeting")
	s.SetTitle(greeting)
	return message(s, &gql.Request{
		Query:         messageQuery.Query,
		OperationName: messageQuery.OperationName,
		Variables:     map[string]any{"greeting": greeting},
	})
}

func message(s *view.Scope, req *gql.Request) *vdom.VNode {
	q := s.Query(req)
	if q.Loading {
		return vdom.P(vdom.Class("loading"), vdom.Text("Loading..."))
	}
	var data struct {
		Message Message `json:"message"`
	}
	if err := q.Decode(&data); err != nil {
		return vdom.P(vdom.Class("error"), vdom.Text(err.Error()))
	}
	return vdom.Div(
		vdom.H1(vdom.Text(data.Message.Text)),
		vdom.P(vdom.Text("Counter: "+strconv.Itoa(visits(s)))),
	)
}

func visits(s *view.Scope) int {
	if s.Store() == nil {
		return 0
	}
	v, _ := s.Store().Get("counter")
	c, _ := v.(Counter)
	return c.Count
}

// About is a static page.
func About(s *view.Scope) *vdom.VNode {
	s.SetTitle("About")
	return vdom.P(vdom.Text("Server-rendered with ssrkit."))
}

// Missing marks unknown paths as not found.
func Missing(s *view.Scope) *vdom.VNode {
	s.SetTitle("Not found")
	return view.NotFound(vdom.H1(vdom.Text("Not found")))
}
