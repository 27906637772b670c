package ssrkit

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/graphql-go/graphql"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/store"
	"github.com/ssrkit/ssrkit/pkg/vdom"
	"github.com/ssrkit/ssrkit/pkg/view"
)

type testApp struct {
	*App
	logs *bytes.Buffer
	dir  string
}

func newTestApp(t *testing.T, root view.View, s *Settings, configure ...func(*Config)) *testApp {
	t.Helper()
	if s == nil {
		s = NewSettings()
	}
	logs := &bytes.Buffer{}
	dir := t.TempDir()
	cfg := Config{
		Dev:    true,
		Dist:   dir,
		Logger: slog.New(slog.NewTextHandler(logs, nil)),
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	app, err := New(root, s, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testApp{App: app, logs: logs, dir: dir}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func hello(s *view.Scope) *vdom.VNode {
	s.SetTitle("Home")
	return vdom.H1(vdom.Text("Hello"))
}

func TestPing(t *testing.T) {
	app := newTestApp(t, hello, nil)

	rr := app.get("/ping")
	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Fatalf("GET /ping = %d %q", rr.Code, rr.Body.String())
	}
}

func TestFavicon(t *testing.T) {
	app := newTestApp(t, hello, nil)

	rr := app.get("/favicon.ico")
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("GET /favicon.ico = %d %q, want 204", rr.Code, rr.Body.String())
	}

	if err := os.WriteFile(filepath.Join(app.dir, "favicon.ico"), []byte("icon"), 0o644); err != nil {
		t.Fatal(err)
	}
	rr = app.get("/favicon.ico")
	if rr.Code != http.StatusOK || rr.Body.String() != "icon" {
		t.Fatalf("GET /favicon.ico with file = %d %q", rr.Code, rr.Body.String())
	}
}

var responseTimePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?ms$`)

func TestRenderDocument(t *testing.T) {
	app := newTestApp(t, hello, nil)

	rr := app.get("/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<div id="main">`,
		"Hello",
		"<title>Home</title>",
		`<link rel="stylesheet" href="/assets/css/style.css">`,
		`window.webpackManifest={};`,
		`window.__STATE__={"gql":{}};`,
		`src="/browser.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	h := rr.Header()
	if !strings.HasPrefix(h.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", h.Get("Content-Type"))
	}
	if got := h.Get("Response-Time"); !responseTimePattern.MatchString(got) {
		t.Errorf("Response-Time = %q", got)
	}
	if h.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", h.Get("X-Content-Type-Options"))
	}
}

func TestRenderRedirect(t *testing.T) {
	app := newTestApp(t, func(s *view.Scope) *vdom.VNode {
		return vdom.Div(view.Redirect("/elsewhere", false))
	}, nil)

	rr := app.get("/old")
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if rr.Header().Get("Location") != "/elsewhere" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	if rr.Body.Len() != 0 {
		t.Errorf("redirect body = %q, want empty", rr.Body.String())
	}
}

func missingPage(s *view.Scope) *vdom.VNode {
	return view.NotFound(vdom.P(vdom.Text("no such page")))
}

func TestRenderNotFoundWithoutHandler(t *testing.T) {
	app := newTestApp(t, missingPage, nil)

	rr := app.get("/missing")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no such page") {
		t.Errorf("body does not contain the rendered markup:\n%s", rr.Body.String())
	}
}

func TestRenderNotFoundWithHandler(t *testing.T) {
	var calls atomic.Int32
	s := NewSettings()
	s.Set404Handler(func(c *Context) error {
		calls.Add(1)
		return c.String(http.StatusNotFound, "custom 404")
	})
	app := newTestApp(t, missingPage, s)

	rr := app.get("/missing")
	if rr.Code != http.StatusNotFound || rr.Body.String() != "custom 404" {
		t.Fatalf("GET /missing = %d %q", rr.Code, rr.Body.String())
	}
	if calls.Load() != 1 {
		t.Errorf("404 handler called %d times", calls.Load())
	}
}

func TestErrorTrapLogsOnce(t *testing.T) {
	s := NewSettings()
	s.AddMiddleware(func(c *Context, next func() error) error {
		return errors.New("boom")
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Body.String() != genericErrorBody {
		t.Errorf("body = %q", rr.Body.String())
	}
	if got := rr.Header().Get("Response-Time"); !responseTimePattern.MatchString(got) {
		t.Errorf("Response-Time = %q", got)
	}
	if n := strings.Count(app.logs.String(), "boom"); n != 1 {
		t.Errorf("error logged %d times:\n%s", n, app.logs.String())
	}

	// The process keeps serving.
	if rr := app.get("/ping"); rr.Code != http.StatusOK {
		t.Errorf("GET /ping after failure = %d", rr.Code)
	}
}

func TestErrorTrapRecoversPanics(t *testing.T) {
	s := NewSettings()
	s.AddGetRoute("/panic", func(c *Context) error {
		panic("kaboom")
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/panic")
	if rr.Code != http.StatusInternalServerError || rr.Body.String() != genericErrorBody {
		t.Fatalf("GET /panic = %d %q", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Response-Time"); !responseTimePattern.MatchString(got) {
		t.Errorf("Response-Time = %q", got)
	}
	if !strings.Contains(app.logs.String(), "panic: kaboom") {
		t.Errorf("panic not logged:\n%s", app.logs.String())
	}
}

// brokenConn accepts headers but fails every body write.
type brokenConn struct {
	header http.Header
	status int
}

func (b *brokenConn) Header() http.Header       { return b.header }
func (b *brokenConn) WriteHeader(code int)      { b.status = code }
func (b *brokenConn) Write([]byte) (int, error) { return 0, errors.New("write tcp: broken pipe") }

func TestRenderWriteFailureIsQuiet(t *testing.T) {
	app := newTestApp(t, hello, nil)

	w := &brokenConn{header: http.Header{}}
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.status != http.StatusOK {
		t.Errorf("status = %d, want 200", w.status)
	}
	if logs := app.logs.String(); strings.Contains(logs, "request failed") || strings.Contains(logs, "broken pipe") {
		t.Errorf("dropped connection logged as a failure:\n%s", logs)
	}
}

func TestErrorTrapHTTPErrorStatus(t *testing.T) {
	s := NewSettings()
	s.AddGetRoute("/teapot", func(c *Context) error {
		return NewHTTPError(http.StatusTeapot, "short and stout", nil)
	})
	app := newTestApp(t, hello, s)

	if rr := app.get("/teapot"); rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	var got error
	s := NewSettings()
	s.SetErrorHandler(func(c *Context, err error) {
		got = err
		c.String(http.StatusServiceUnavailable, "sorry")
	})
	s.AddBeforeMiddleware(func(c *Context, next func() error) error {
		return errors.New("boom")
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/")
	if rr.Code != http.StatusServiceUnavailable || rr.Body.String() != "sorry" {
		t.Fatalf("GET / = %d %q", rr.Code, rr.Body.String())
	}
	if got == nil || got.Error() != "boom" {
		t.Errorf("handler got %v", got)
	}
	if strings.Contains(app.logs.String(), "boom") {
		t.Errorf("error handler should replace logging:\n%s", app.logs.String())
	}
}

func TestMiddlewareCanSwallowErrors(t *testing.T) {
	s := NewSettings()
	s.AddBeforeMiddleware(func(c *Context, next func() error) error {
		if err := next(); err != nil {
			return c.String(http.StatusOK, "recovered: "+err.Error())
		}
		return nil
	})
	s.AddGetRoute("/fail", func(c *Context) error {
		return errors.New("route failed")
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/fail")
	if rr.Code != http.StatusOK || rr.Body.String() != "recovered: route failed" {
		t.Fatalf("GET /fail = %d %q", rr.Code, rr.Body.String())
	}
}

func TestCustomRoutesAndMiddlewareOrder(t *testing.T) {
	var order []string
	s := NewSettings()
	s.AddMiddleware(func(c *Context, next func() error) error {
		order = append(order, "after")
		return next()
	})
	s.AddBeforeMiddleware(func(c *Context, next func() error) error {
		order = append(order, "before")
		return next()
	})
	s.AddGetRoute("/hello/{name}", func(c *Context) error {
		order = append(order, "route")
		return c.String(http.StatusOK, "hello "+c.Param("name"))
	})
	s.AddPostRoute("/echo", func(c *Context) error {
		var in struct{ Text string }
		if err := c.Bind(&in); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, map[string]string{"echo": in.Text})
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/hello/ada")
	if rr.Body.String() != "hello ada" {
		t.Fatalf("GET /hello/ada = %q", rr.Body.String())
	}
	if got := strings.Join(order, ","); got != "before,after,route" {
		t.Errorf("order = %s", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = app.do(req)
	if rr.Code != http.StatusCreated || rr.Body.String() != `{"echo":"hi"}` {
		t.Errorf("POST /echo = %d %q", rr.Code, rr.Body.String())
	}
}

func counterSlice() store.Slice {
	return store.NewSlice(0, func(n int, a store.Action) int {
		if a.Type == "INCREMENT_COUNTER" {
			return n + 1
		}
		return n
	})
}

func TestStoreIsPerRequest(t *testing.T) {
	s := NewSettings()
	s.AddReducer("counter", counterSlice())
	s.AddMiddleware(func(c *Context, next func() error) error {
		c.Store().Dispatch(store.Action{Type: "INCREMENT_COUNTER"})
		return next()
	})
	app := newTestApp(t, hello, s)

	for i := 0; i < 2; i++ {
		body := app.get("/").Body.String()
		if !strings.Contains(body, `window.__STATE__={"counter":1,"gql":{}};`) {
			t.Fatalf("request %d state not fresh:\n%s", i, body)
		}
	}
}

func messageSchema(t *testing.T) graphql.Schema {
	t.Helper()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"message": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (any, error) {
						c, err := FromContext(p.Context)
						if err != nil {
							return nil, err
						}
						if cookie, err := c.Cookie("name"); err == nil {
							return "hello " + cookie.Value, nil
						}
						return "hello world", nil
					},
				},
			},
		}),
	})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func messageView(s *view.Scope) *vdom.VNode {
	q := s.Query(&gql.Request{Query: "{ message }"})
	if q.Loading {
		return vdom.P(vdom.Text("loading"))
	}
	var data struct{ Message string }
	if err := q.Decode(&data); err != nil {
		return vdom.P(vdom.Text("error: " + err.Error()))
	}
	return vdom.H1(vdom.Text(data.Message))
}

func TestGraphQLServer(t *testing.T) {
	s := NewSettings()
	s.EnableGraphQLServer(messageSchema(t))
	app := newTestApp(t, messageView, s)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ message }"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := app.do(req)
	if rr.Code != http.StatusOK || rr.Body.String() != "{\"data\":{\"message\":\"hello world\"}}\n" {
		t.Fatalf("POST /graphql = %d %q", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Accept", "text/html")
	if rr := app.do(req); !strings.Contains(rr.Body.String(), "GraphiQL") {
		t.Errorf("GET /graphql did not serve GraphiQL")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "name", Value: "ada"})
	rr = app.do(req)
	body := rr.Body.String()
	if !strings.Contains(body, "<h1>hello ada</h1>") {
		t.Errorf("render did not resolve the query in-process:\n%s", body)
	}
	if strings.Contains(body, "loading") {
		t.Errorf("render emitted a loading state:\n%s", body)
	}
	if !strings.Contains(body, `"gql":{"`) {
		t.Errorf("state does not carry the query cache:\n%s", body)
	}
}

func TestGraphQLRemoteEndpoint(t *testing.T) {
	var gotHeader atomic.Value
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Get("Authorization"))
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"message":"from remote"}}`)
	}))
	defer remote.Close()

	s := NewSettings()
	s.SetGraphQLEndpoint(remote.URL + "/graphql")
	s.AddGraphQLMiddleware(func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer token")
		return nil
	})
	app := newTestApp(t, messageView, s)

	body := app.get("/").Body.String()
	if !strings.Contains(body, "from remote") {
		t.Fatalf("remote result not rendered:\n%s", body)
	}
	if gotHeader.Load() != "Bearer token" {
		t.Errorf("Authorization = %v", gotHeader.Load())
	}
}

func TestStaticBeforeRender(t *testing.T) {
	app := newTestApp(t, hello, nil)
	if err := os.WriteFile(filepath.Join(app.dir, "robots.txt"), []byte("User-agent: *"), 0o644); err != nil {
		t.Fatal(err)
	}

	rr := app.get("/robots.txt")
	if rr.Body.String() != "User-agent: *" {
		t.Errorf("GET /robots.txt = %q", rr.Body.String())
	}
	if rr := app.get("/robots.missing"); !strings.Contains(rr.Body.String(), "Hello") {
		t.Errorf("missing file did not fall through to the render")
	}
}

func TestForceSSL(t *testing.T) {
	s := NewSettings()
	s.ForceSSL(8443)
	app := newTestApp(t, hello, s)

	rr := app.get("http://example.com/page?x=1")
	if rr.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "https://example.com:8443/page?x=1" {
		t.Errorf("Location = %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/page", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if rr := app.do(req); rr.Code != http.StatusOK {
		t.Errorf("proxied HTTPS request status = %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, hello, nil)

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := app.do(req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	s := NewSettings()
	s.DisableCORS()
	app = newTestApp(t, hello, s)
	rr = app.do(req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("CORS disabled but header set")
	}
}

func TestMetrics(t *testing.T) {
	app := newTestApp(t, hello, nil, func(c *Config) { c.Metrics = true })

	app.get("/")
	body := app.get("/metrics").Body.String()
	for _, want := range []string{
		`ssrkit_render_outcomes_total{outcome="ok"} 1`,
		`ssrkit_http_requests_total{method="GET",route="/*",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestProductionAssets(t *testing.T) {
	dist := t.TempDir()
	files := map[string]string{
		"manifest.json":       `{"browser.css":"/assets/css/style.1a2b3c4d.css","manifest.js":"/manifest.1a2b3c4d.js","vendor.js":"/vendor.1a2b3c4d.js","browser.js":"/browser.1a2b3c4d.js"}`,
		"chunk-manifest.json": `{"0":"0.1a2b3c4d.js"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dist, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	app := newTestApp(t, hello, nil, func(c *Config) {
		c.Dev = false
		c.Dist = dist
	})

	body := app.get("/").Body.String()
	for _, want := range []string{
		`href="/assets/css/style.1a2b3c4d.css"`,
		`window.webpackManifest={"0":"0.1a2b3c4d.js"};`,
		`src="/manifest.1a2b3c4d.js"`,
		`src="/browser.1a2b3c4d.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	if _, err := New(hello, NewSettings(), Config{Dist: t.TempDir()}); err == nil {
		t.Error("New without manifests in production should fail")
	}
}

func TestNewFreezesSettings(t *testing.T) {
	s := NewSettings()
	newTestApp(t, hello, s)

	defer func() {
		if recover() == nil {
			t.Error("AddGetRoute after New did not panic")
		}
	}()
	s.AddGetRoute("/late", func(c *Context) error { return nil })
}

func TestOnApp(t *testing.T) {
	s := NewSettings()
	s.OnApp(func(r *chi.Mux) {
		r.Get("/raw", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "raw handler")
		})
	})
	app := newTestApp(t, hello, s)

	rr := app.get("/raw")
	if rr.Body.String() != "raw handler" {
		t.Fatalf("GET /raw = %q", rr.Body.String())
	}
	if rr.Header().Get("Response-Time") == "" {
		t.Error("hook routes should run behind the middleware chain")
	}
}
