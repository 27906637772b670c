package ssrkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Body types understood by the body parser.
const (
	BodyJSON = "json"
	BodyForm = "form"
	BodyText = "text"
)

// BodyParserOptions configures request body parsing.
type BodyParserOptions struct {
	// EnableTypes lists the body types parsed. Default: json and form.
	EnableTypes []string

	// JSONLimit, FormLimit and TextLimit bound the body size per type.
	// Defaults: 1MB, 56KB and 1MB.
	JSONLimit int64
	FormLimit int64
	TextLimit int64

	// Strict only accepts JSON objects and arrays.
	Strict bool
}

// DefaultBodyParserOptions returns the parser defaults.
func DefaultBodyParserOptions() BodyParserOptions {
	return BodyParserOptions{
		EnableTypes: []string{BodyJSON, BodyForm},
		JSONLimit:   1 << 20,
		FormLimit:   56 << 10,
		TextLimit:   1 << 20,
		Strict:      true,
	}
}

// Body is a parsed request body. Type is empty when the request had no
// body of an enabled type.
type Body struct {
	Type string
	Raw  []byte
	Form url.Values
}

// Bind unmarshals a JSON body into v.
func (b *Body) Bind(v any) error {
	if b.Type != BodyJSON {
		return &HTTPError{Code: http.StatusUnsupportedMediaType, Message: "expected a JSON body"}
	}
	if err := json.Unmarshal(b.Raw, v); err != nil {
		return BadRequest(fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

// Text returns the raw body as a string.
func (b *Body) Text() string { return string(b.Raw) }

type bodyParser struct {
	opts BodyParserOptions
}

func newBodyParser(opts BodyParserOptions) *bodyParser {
	def := DefaultBodyParserOptions()
	if len(opts.EnableTypes) == 0 {
		opts.EnableTypes = def.EnableTypes
	}
	if opts.JSONLimit <= 0 {
		opts.JSONLimit = def.JSONLimit
	}
	if opts.FormLimit <= 0 {
		opts.FormLimit = def.FormLimit
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = def.TextLimit
	}
	return &bodyParser{opts: opts}
}

// kind maps the request media type to an enabled body type.
func (p *bodyParser) kind(r *http.Request) (string, int64) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var kind string
	var limit int64
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		kind, limit = BodyJSON, p.opts.JSONLimit
	case mediaType == "application/x-www-form-urlencoded":
		kind, limit = BodyForm, p.opts.FormLimit
	case mediaType == "text/plain":
		kind, limit = BodyText, p.opts.TextLimit
	default:
		return "", 0
	}
	if !slices.Contains(p.opts.EnableTypes, kind) {
		return "", 0
	}
	return kind, limit
}

func (p *bodyParser) parse(w http.ResponseWriter, r *http.Request) (*Body, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return &Body{}, nil
	}
	kind, limit := p.kind(r)
	if kind == "" {
		return &Body{}, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &HTTPError{Code: http.StatusRequestEntityTooLarge, Message: "request body too large", Err: err}
		}
		return nil, BadRequest(fmt.Errorf("read body: %w", err))
	}

	body := &Body{Type: kind, Raw: raw}
	switch kind {
	case BodyJSON:
		if len(raw) == 0 {
			return body, nil
		}
		if !json.Valid(raw) {
			return nil, BadRequest(errors.New("invalid JSON body"))
		}
		if p.opts.Strict {
			if first := firstNonSpace(raw); first != '{' && first != '[' {
				return nil, BadRequest(errors.New("JSON body must be an object or an array"))
			}
		}
	case BodyForm:
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, BadRequest(fmt.Errorf("invalid form body: %w", err))
		}
		body.Form = form
	}
	return body, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

// Body parses the request body on first use. It returns
// ErrBodyParserDisabled when parsing was turned off.
func (c *Context) Body() (*Body, error) {
	if c.parser == nil {
		return nil, ErrBodyParserDisabled
	}
	if !c.parsed {
		c.body, c.berr = c.parser.parse(c.w, c.r)
		c.parsed = true
	}
	return c.body, c.berr
}

// Bind parses a JSON request body into v.
func (c *Context) Bind(v any) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	return body.Bind(v)
}
