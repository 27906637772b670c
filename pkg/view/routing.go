package view

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ssrkit/ssrkit/pkg/vdom"
)

// Route pairs a chi path pattern with the view rendered for it.
type Route struct {
	Path string
	View View
}

type compiledRoute struct {
	mux  *chi.Mux
	view View
}

// Switch renders the first route whose pattern matches the location.
// Patterns use chi syntax ("/page/{name}", "/*"). Nothing is rendered when
// no route matches.
func Switch(routes ...Route) View {
	compiled := make([]compiledRoute, len(routes))
	for i, r := range routes {
		mux := chi.NewRouter()
		mux.Get(r.Path, http.NotFound)
		compiled[i] = compiledRoute{mux: mux, view: r.View}
	}

	return func(s *Scope) *vdom.VNode {
		path := s.Location().Path
		for _, r := range compiled {
			rctx := chi.NewRouteContext()
			if !r.mux.Match(rctx, http.MethodGet, path) {
				continue
			}
			params := make(map[string]string, len(rctx.URLParams.Keys))
			for i, k := range rctx.URLParams.Keys {
				params[k] = rctx.URLParams.Values[i]
			}
			return r.view(s.withParams(params))
		}
		return nil
	}
}

// Redirect ends the render with a redirect to location.
func Redirect(location string, permanent bool) *vdom.VNode {
	code := http.StatusFound
	if permanent {
		code = http.StatusMovedPermanently
	}
	return vdom.WithStatus(code, location)
}

// NotFound marks the route as missing. children are still rendered when
// no custom not-found handler takes over.
func NotFound(children ...any) *vdom.VNode {
	return vdom.WithStatus(http.StatusNotFound, "", children...)
}

// Status sets the response status of an otherwise normal render.
func Status(code int, children ...any) *vdom.VNode {
	return vdom.WithStatus(code, "", children...)
}
