package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryAssets  Category = "assets"
	CategoryServer  Category = "server"
	CategoryRuntime Category = "runtime"
	CategoryCLI     Category = "cli"
)

// Location is a position in a configuration file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// KitError is a coded error with an explanation and a fix suggestion.
type KitError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	Location *Location

	// Context contains the lines of the file around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct configuration.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *KitError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *KitError) Unwrap() error {
	return e.Wrapped
}

// WithLocation points the error at a line of file.
func (e *KitError) WithLocation(file string, line, column int) *KitError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextRadius)
	return e
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// WithLocationFromYAML extracts the line number from a yaml.v3 error,
// such as "yaml: line 3: mapping values are not allowed in this context".
func (e *KitError) WithLocationFromYAML(file string, err error) *KitError {
	if err == nil {
		return e
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	if line, convErr := strconv.Atoi(m[1]); convErr == nil && line > 0 {
		e.WithLocation(file, line, 0)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *KitError) WithSuggestion(s string) *KitError {
	e.Suggestion = s
	return e
}

// WithExample adds a configuration example to the error.
func (e *KitError) WithExample(ex string) *KitError {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *KitError) WithDetail(d string) *KitError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *KitError) Wrap(err error) *KitError {
	e.Wrapped = err
	return e
}

// contextRadius is the number of lines shown on each side of Location.
const contextRadius = 2

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, radius int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - radius
	endLine := targetLine + radius

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a KitError from a registered error code.
func New(code string) *KitError {
	template, ok := registry[code]
	if !ok {
		return &KitError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &KitError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a KitError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *KitError {
	return &KitError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a KitError, wrapping it under code when it is
// not one already.
func FromError(err error, code string) *KitError {
	if err == nil {
		return nil
	}
	var ke *KitError
	if stderrors.As(err, &ke) {
		return ke
	}
	return New(code).Wrap(err)
}
