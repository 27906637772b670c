package gql

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/graphql-go/graphql"
)

// DefaultMaxRequestBytes bounds the size of a POSTed operation.
const DefaultMaxRequestBytes = 1 << 20

// Handler serves operations against an in-process schema, POSTed as JSON
// or application/graphql, or sent as GET query parameters.
type Handler struct {
	schema   graphql.Schema
	opts     []LocalOption
	maxBytes int64
}

// NewHandler creates a handler for schema. Each request gets its own
// LocalTransport scoped to that request.
func NewHandler(schema graphql.Schema, opts ...LocalOption) *Handler {
	return &Handler{schema: schema, opts: opts, maxBytes: DefaultMaxRequestBytes}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		writeResult(w, http.StatusBadRequest, &Result{Errors: []Error{{Message: err.Error()}}})
		return
	}

	opts := append([]LocalOption{WithRequest(r)}, h.opts...)
	res, err := NewLocalTransport(h.schema, opts...).Do(r.Context(), req)
	if err != nil {
		writeResult(w, http.StatusInternalServerError, &Result{Errors: []Error{{Message: err.Error()}}})
		return
	}
	writeResult(w, http.StatusOK, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, error) {
	if r.Method == http.MethodGet {
		return decodeQuery(r.URL.Query())
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/graphql" {
		query, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return &Request{Query: string(query)}, nil
	}

	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Query == "" {
		return nil, errors.New("must provide query string")
	}
	return &req, nil
}

// decodeQuery reads an operation from query string parameters. Mutations
// are refused over GET.
func decodeQuery(q url.Values) (*Request, error) {
	req := &Request{Query: q.Get("query"), OperationName: q.Get("operationName")}
	if req.Query == "" {
		return nil, errors.New("must provide query string")
	}
	if strings.HasPrefix(strings.TrimSpace(req.Query), "mutation") {
		return nil, errors.New("mutations must be sent with POST")
	}
	if vars := q.Get("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			return nil, fmt.Errorf("invalid variables: %w", err)
		}
	}
	return req, nil
}

func writeResult(w http.ResponseWriter, status int, res *Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

var graphiqlPage = template.Must(template.New("graphiql").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>GraphiQL</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
  <style>body { margin: 0; height: 100vh; } #graphiql { height: 100vh; }</style>
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: {{.Endpoint}} });
    ReactDOM.createRoot(document.getElementById('graphiql'))
      .render(React.createElement(GraphiQL, { fetcher }));
  </script>
</body>
</html>
`))

// GraphiQL serves the interactive explorer for the endpoint.
func GraphiQL(endpoint string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := graphiqlPage.Execute(w, struct{ Endpoint string }{endpoint}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
