package config

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a configuration violation.
type Kind int

const (
	MissingField Kind = iota + 1
	InvalidRange
	MalformedURL
)

var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidRange = errors.New("invalid range")
	ErrMalformedURL = errors.New("malformed url")
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "MissingField"
	case InvalidRange:
		return "InvalidRange"
	case MalformedURL:
		return "MalformedURL"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case MissingField:
		return ErrMissingField
	case InvalidRange:
		return ErrInvalidRange
	case MalformedURL:
		return ErrMalformedURL
	}
	return nil
}

// FieldError is a single violation against one input key.
type FieldError struct {
	Field string // input key, e.g. "server_port" or "known_networks[1].ssid"
	Kind  Kind
	Msg   string
}

func (e *FieldError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Kind.sentinel(), e.Msg)
}

// Unwrap lets errors.Is match the sentinel for the error's kind.
func (e *FieldError) Unwrap() error { return e.Kind.sentinel() }

// ValidationError reports every violation found during a load, in input
// order, so the whole file can be fixed in one edit.
type ValidationError struct {
	Errs []*FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errs) == 1 {
		return "config: " + e.Errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "config: %d problems", len(e.Errs))
	for _, fe := range e.Errs {
		b.WriteString("\n  - ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errs))
	for i, fe := range e.Errs {
		errs[i] = fe
	}
	return errs
}

// Fields returns the keys that failed with the given kind.
func (e *ValidationError) Fields(kind Kind) []string {
	var out []string
	for _, fe := range e.Errs {
		if fe.Kind == kind {
			out = append(out, fe.Field)
		}
	}
	return out
}

// collector accumulates violations while a document is checked.
type collector struct {
	errs []*FieldError
}

func (c *collector) add(field string, kind Kind, format string, args ...any) {
	c.errs = append(c.errs, &FieldError{Field: field, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Errs: c.errs}
}
