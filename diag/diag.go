// Package diag defines the positioned error type shared by every stage of
// the toolchain: lexer, parser, macro expander, evaluator, module loader and
// code generators.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage that raised it.
type Kind uint8

// Error kinds
const (
	KindInvalid Kind = iota
	Lex
	Parse
	Macro
	Name
	Type
	Runtime
	Load
	Codegen
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	Lex:         "lex",
	Parse:       "parse",
	Macro:       "macro",
	Name:        "name",
	Type:        "type",
	Runtime:     "runtime",
	Load:        "load",
	Codegen:     "codegen",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindInvalid]
}

// Error is a failure with a source position. Line and Col are 1-based; a zero
// Line means the position is unknown.
type Error struct {
	Kind    Kind
	Line    int
	Col     int
	Message string

	// Err is an optional sentinel the error can be matched against with
	// errors.Is.
	Err error
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error at line %d, col %d: %s", e.Kind, e.Line, e.Col, e.Message)
}

// Unwrap returns the sentinel attached to the error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a positioned error of the given kind.
func Errorf(kind Kind, line, col int, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a positioned error that unwraps to sentinel.
func Wrap(sentinel error, kind Kind, line, col int, format string, args ...interface{}) *Error {
	e := Errorf(kind, line, col, format, args...)
	e.Err = sentinel
	return e
}

// Is reports whether err is, or wraps, a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInvalid when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalid
}
