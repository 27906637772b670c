package ssrkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func parseBody(t *testing.T, opts BodyParserOptions, contentType, body string) (*Body, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return newBodyParser(opts).parse(httptest.NewRecorder(), r)
}

func TestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		opts        BodyParserOptions
		contentType string
		body        string
		wantType    string
		wantStatus  int
	}{
		{name: "json object", contentType: "application/json", body: `{"a":1}`, wantType: BodyJSON},
		{name: "json with charset", contentType: "application/json; charset=utf-8", body: `[1,2]`, wantType: BodyJSON},
		{name: "vendor json", contentType: "application/vnd.api+json", body: `{}`, wantType: BodyJSON},
		{name: "form", contentType: "application/x-www-form-urlencoded", body: "a=1&b=2", wantType: BodyForm},
		{name: "text disabled by default", contentType: "text/plain", body: "hi"},
		{name: "text enabled", opts: BodyParserOptions{EnableTypes: []string{BodyText}}, contentType: "text/plain", body: "hi", wantType: BodyText},
		{name: "unknown type", contentType: "application/octet-stream", body: "xx"},
		{name: "invalid json", contentType: "application/json", body: `{"a":`, wantStatus: http.StatusBadRequest},
		{name: "strict rejects scalars", opts: BodyParserOptions{Strict: true}, contentType: "application/json", body: ` "str"`, wantStatus: http.StatusBadRequest},
		{name: "lenient accepts scalars", contentType: "application/json", body: `"str"`, wantType: BodyJSON},
		{name: "too large", opts: BodyParserOptions{JSONLimit: 4}, contentType: "application/json", body: `{"a":1}`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := parseBody(t, tt.opts, tt.contentType, tt.body)
			if tt.wantStatus != 0 {
				var he *HTTPError
				if !errors.As(err, &he) || he.Code != tt.wantStatus {
					t.Fatalf("err = %v, want HTTP %d", err, tt.wantStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if b.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", b.Type, tt.wantType)
			}
		})
	}
}

func TestBodyForm(t *testing.T) {
	b, err := parseBody(t, BodyParserOptions{}, "application/x-www-form-urlencoded", "name=ada&tag=a&tag=b")
	if err != nil {
		t.Fatal(err)
	}
	if b.Form.Get("name") != "ada" || len(b.Form["tag"]) != 2 {
		t.Errorf("Form = %v", b.Form)
	}
}

func TestBodyBind(t *testing.T) {
	b, err := parseBody(t, BodyParserOptions{}, "application/json", `{"name":"ada"}`)
	if err != nil {
		t.Fatal(err)
	}
	var v struct{ Name string }
	if err := b.Bind(&v); err != nil || v.Name != "ada" {
		t.Fatalf("Bind = %v, %+v", err, v)
	}

	form := &Body{Type: BodyForm}
	if err := form.Bind(&v); statusOf(err) != http.StatusUnsupportedMediaType {
		t.Errorf("Bind on a form body: status %d", statusOf(err))
	}
}

func TestContextBodyDisabled(t *testing.T) {
	c := newContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")), nil)
	if _, err := c.Body(); !errors.Is(err, ErrBodyParserDisabled) {
		t.Errorf("Body() err = %v", err)
	}
}

func TestContextBodyParsedOnce(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"n":1}`))
	r.Header.Set("Content-Type", "application/json")
	c := newContext(httptest.NewRecorder(), r, nil)
	c.parser = newBodyParser(DefaultBodyParserOptions())

	first, err := c.Body()
	if err != nil {
		t.Fatal(err)
	}
	second, _ := c.Body()
	if first != second {
		t.Error("body parsed twice")
	}
}
