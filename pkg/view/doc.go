// Package view connects view functions to the request: routing, data
// queries, document metadata and route outcomes.
//
//	app := view.Switch(
//	    view.Route{Path: "/", View: home},
//	    view.Route{Path: "/page/{name}", View: page},
//	    view.Route{Path: "/old", View: func(*view.Scope) *vdom.VNode {
//	        return view.Redirect("/", true)
//	    }},
//	    view.Route{Path: "/*", View: func(*view.Scope) *vdom.VNode {
//	        return view.NotFound(vdom.H1(vdom.Text("Unknown route")))
//	    }},
//	)
//
// Query returns cached data or records the operation as pending; Render
// repeats the view until nothing is pending.
package view
