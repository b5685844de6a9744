// Package failure defines the structured errors reported by usergate.
//
// An Error carries a machine readable code, a message, an ordered set of
// named attributes, an optional remediation hint and any number of
// associated errors of the same shape. Reconciliation uses the associated
// errors to report every conflict in one pass.
package failure

import (
	"fmt"
	"io"
	"strings"
)

const (
	CodeUserConflict  = "error-user-conflict"
	CodeGroupConflict = "error-group-conflict"
	CodeCommandFailed = "error-command-failed"
	CodeConfigInvalid = "error-config-invalid"
)

// Attribute is one named value attached to an Error.
type Attribute struct {
	Name  string
	Value string
}

// Error is a structured usergate error.
type Error struct {
	Code        string
	Message     string
	Attributes  []Attribute
	Remediation string
	Cause       error
	Associated  []*Error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, attr := range e.Attributes {
		fmt.Fprintf(&b, " [%s: %s]", attr.Name, attr.Value)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if n := len(e.Associated); n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Attr returns the value of the named attribute.
func (e *Error) Attr(name string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Errors returns the error itself followed by its associated errors.
func (e *Error) Errors() []*Error {
	all := make([]*Error, 0, 1+len(e.Associated))
	primary := *e
	primary.Associated = nil
	all = append(all, &primary)
	return append(all, e.Associated...)
}

// New builds an Error. Attributes are given as name/value pairs.
func New(code, message string, pairs ...string) *Error {
	e := &Error{Code: code, Message: message}
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Attributes = append(e.Attributes, Attribute{Name: pairs[i], Value: pairs[i+1]})
	}
	return e
}

// WithRemediation sets the remediation hint and returns the error.
func (e *Error) WithRemediation(remediation string) *Error {
	e.Remediation = remediation
	return e
}

// WithCause sets the underlying cause and returns the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Aggregate folds a list of errors into one: the first becomes the primary
// error and the rest its associated errors. It returns nil for an empty list.
func Aggregate(errs []*Error) *Error {
	if len(errs) == 0 {
		return nil
	}
	primary := *errs[0]
	primary.Associated = append([]*Error(nil), errs[1:]...)
	return &primary
}

// Format writes a human readable report of err, including every associated
// error, to w.
func Format(w io.Writer, err *Error) error {
	for i, e := range err.Errors() {
		if i > 0 {
			if _, werr := fmt.Fprintln(w); werr != nil {
				return werr
			}
		}
		if werr := formatOne(w, e); werr != nil {
			return werr
		}
	}
	return nil
}

func formatOne(w io.Writer, e *Error) error {
	width := 0
	for _, attr := range e.Attributes {
		if len(attr.Name) > width {
			width = len(attr.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Code, e.Message)
	for _, attr := range e.Attributes {
		fmt.Fprintf(&b, "  %-*s : %s\n", width, attr.Name, attr.Value)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "  cause: %v\n", e.Cause)
	}
	if e.Remediation != "" {
		fmt.Fprintf(&b, "  remediation: %s\n", e.Remediation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
