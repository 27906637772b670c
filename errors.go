package ssrkit

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoContext is returned by FromContext when the context was not created
// by an App.
var ErrNoContext = errors.New("ssrkit: no request context")

// ErrBodyParserDisabled is returned by Context.Body when body parsing was
// turned off with Settings.DisableBodyParser.
var ErrBodyParserDisabled = errors.New("ssrkit: body parser disabled")

// genericErrorBody is written by the error trap when no error handler is
// registered.
const genericErrorBody = "There was an error. Please try again later."

// HTTPError is an error carrying the status code the error trap responds
// with.
type HTTPError struct {
	Code    int    // HTTP status code (e.g., 400, 404, 500)
	Message string // Message for logs; clients get the generic body
	Err     error  // Optional underlying error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// NewHTTPError creates an error with the given status code.
func NewHTTPError(code int, message string, err error) *HTTPError {
	return &HTTPError{Code: code, Message: message, Err: err}
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(err error) *HTTPError {
	msg := "bad request"
	if err != nil {
		msg = err.Error()
	}
	return &HTTPError{Code: http.StatusBadRequest, Message: msg, Err: err}
}

// statusOf returns the response status for err: the code of an error
// carrying one, else 500.
func statusOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// PanicError is a recovered panic, reported through the error trap.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
