package ssrkit

import (
	"slices"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"

	"github.com/ssrkit/ssrkit/pkg/store"
)

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic containing %q", want)
		}
		if msg, _ := r.(string); !strings.Contains(msg, want) {
			t.Fatalf("panic = %v, want it to contain %q", r, want)
		}
	}()
	fn()
}

func TestAddReducer(t *testing.T) {
	s := NewSettings()
	s.AddReducer("counter", counterSlice())
	s.AddReducer("alpha", counterSlice())

	if got := s.Reducers(); !slices.Equal(got, []string{"alpha", "counter"}) {
		t.Errorf("Reducers() = %v", got)
	}

	mustPanic(t, "can't add reducer for 'counter' - already registered", func() {
		s.AddReducer("counter", counterSlice())
	})
	mustPanic(t, "can't add reducer for 'gql'", func() {
		s.AddReducer(store.ReservedSlice, counterSlice())
	})
	mustPanic(t, "can't add reducer for 'x' - slice must not be nil", func() {
		s.AddReducer("x", nil)
	})
	mustPanic(t, "name must not be empty", func() {
		s.AddReducer("", counterSlice())
	})
	mustPanic(t, "reducer must not be nil", func() {
		s.AddReducer("x", store.NewSlice(0, nil))
	})
	if got := s.Reducers(); slices.Contains(got, "x") {
		t.Errorf("Reducers() = %v, slice without reducer was registered", got)
	}
}

func TestAddRouteValidation(t *testing.T) {
	s := NewSettings()
	ok := func(c *Context) error { return nil }

	s.AddRoute("get", "/lower", ok)
	if s.routes[0].method != "GET" {
		t.Errorf("method = %q", s.routes[0].method)
	}

	mustPanic(t, "unknown method", func() { s.AddRoute("BREW", "/x", ok) })
	mustPanic(t, "must start with '/'", func() { s.AddGetRoute("x", ok) })
	mustPanic(t, "handler must not be nil", func() { s.AddPostRoute("/x", nil) })
}

func TestHandlerValidation(t *testing.T) {
	s := NewSettings()
	mustPanic(t, "404 handler must be a function", func() { s.Set404Handler(nil) })
	mustPanic(t, "error handler must be a function", func() { s.SetErrorHandler(nil) })
	mustPanic(t, "middleware must not be nil", func() { s.AddMiddleware(nil) })
	mustPanic(t, "out of range", func() { s.ForceSSL(0) })
	mustPanic(t, "needs both", func() { s.EnableSSL("cert.pem", "") })
}

func TestGraphQLSettings(t *testing.T) {
	s := NewSettings()
	if s.GraphQLEndpoint() != "/graphql" {
		t.Errorf("default endpoint = %q", s.GraphQLEndpoint())
	}

	mustPanic(t, "before EnableGraphQLServer", func() { s.SetGraphQLSchema(graphql.Schema{}) })

	schema := messageSchema(t)
	s.EnableGraphQLServer(schema, WithGraphQLEndpoint("/api"), WithGraphiQL(false))
	if s.GraphQLEndpoint() != "/api" || s.graphql.graphiql {
		t.Errorf("options not applied: %+v", s.graphql)
	}

	mustPanic(t, "must be a path", func() {
		NewSettings().EnableGraphQLServer(schema, WithGraphQLEndpoint("api"))
	})
}

func TestTLSEnabled(t *testing.T) {
	s := NewSettings()
	if s.TLSEnabled() {
		t.Error("TLS enabled without material")
	}
	s.EnableSSL("cert.pem", "key.pem")
	if !s.TLSEnabled() {
		t.Error("TLS not enabled after EnableSSL")
	}
}

func TestFrozenSettings(t *testing.T) {
	s := NewSettings()
	s.freeze()

	mustPanic(t, "AddReducer called after the app was created", func() {
		s.AddReducer("counter", counterSlice())
	})
	mustPanic(t, "DisableCORS called after the app was created", s.DisableCORS)
	mustPanic(t, "Set404Handler called after the app was created", func() {
		s.Set404Handler(func(c *Context) error { return nil })
	})
}
