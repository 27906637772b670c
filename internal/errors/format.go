package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used. It starts off when
// NO_COLOR is set.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

func paint(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + ansiReset
}

func red(text string) string  { return paint(ansiRed, text) }
func bold(text string) string { return paint(ansiBold, text) }
func cyan(text string) string { return paint(ansiCyan, text) }
func gray(text string) string { return paint(ansiGray, text) }
func blue(text string) string { return paint(ansiBlue, text) }

// Format renders the error for terminal display: a header, the source
// excerpt around the location, then detail, cause, hint and example.
func (e *KitError) Format() string {
	var b strings.Builder

	header := e.Message
	if e.Code != "" {
		header = e.Code + ": " + e.Message
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", red(bold("ERROR")), bold(header))

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", cyan(e.Location.String()))
		if len(e.Context) > 0 {
			e.writeExcerpt(&b)
			b.WriteString("\n")
		}
	}

	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, l := range lines {
			fmt.Fprintf(&b, "  %s\n", l)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", gray("Cause: "), blue(e.Wrapped.Error()))
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", cyan("Hint: "), e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", cyan("Example:"))
		for _, l := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", l)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// writeExcerpt prints the context lines with the failing one marked and a
// caret under the column.
func (e *KitError) writeExcerpt(w io.Writer) {
	first := max(e.Location.Line-contextRadius, 1)
	for i, line := range e.Context {
		n := first + i
		marker := "  "
		if n == e.Location.Line {
			marker = red("→ ")
		}
		fmt.Fprintf(w, "  %s%4d%s%s\n", marker, n, gray(" │ "), line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(w, "       %s%s%s\n", gray("│ "), strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its location.
func (e *KitError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	return strings.Join(append(parts, e.Message), ": ")
}

// FormatJSON returns the error as a JSON object.
func (e *KitError) FormatJSON() string {
	out := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Location   *Location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		Cause      string    `json:"cause,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText splits text into lines of at most width bytes, breaking on
// spaces. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError prints err to stderr, formatted when it is a *KitError.
func PrintError(err error) {
	var ke *KitError
	if stderrors.As(err, &ke) {
		fmt.Fprint(os.Stderr, ke.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %s\n\n", red(bold("ERROR")), err.Error())
}
