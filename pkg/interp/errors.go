package interp

import (
	"fmt"

	"github.com/blockberries/binterp/pkg/schema"
)

// Kind classifies an Error into one of the five failure categories an
// application needs to distinguish: running out of input, a malformed
// expression or field, a contents/equality check that failed, a feature
// this interpreter deliberately doesn't implement, and everything else.
type Kind int

const (
	KindBase Kind = iota
	KindEOF
	KindParse
	KindValidation
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "eof"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindNotImplemented:
		return "not-implemented"
	default:
		return "base"
	}
}

// Error is the single error type produced by this package. Every failure
// carries the kind it belongs to and, where known, the schema position
// responsible.
type Error struct {
	Kind    Kind
	Pos     schema.Position
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Pos.Filename != "" || e.Pos.Line != 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality, so callers can write errors.Is(err, interp.ErrEOF).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons; only Kind is consulted.
var (
	ErrEOF            = &Error{Kind: KindEOF}
	ErrParse          = &Error{Kind: KindParse}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotImplemented = &Error{Kind: KindNotImplemented}
	ErrBase           = &Error{Kind: KindBase}
)

func newEOFErr(pos schema.Position, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindEOF, Pos: pos, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func newParseErr(pos schema.Position, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func newValidationErr(pos schema.Position, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func newNotImplementedErr(pos schema.Position, format string, args ...any) *Error {
	return &Error{Kind: KindNotImplemented, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func wrapEOF(pos schema.Position, err error) error {
	if err == nil {
		return nil
	}
	return newEOFErr(pos, err, "%s", err.Error())
}

// NewParseError builds a KindParse Error for callers outside this package
// (pkg/binterp surfaces schema-loader and validator failures this way).
func NewParseError(pos schema.Position, message string) *Error {
	return &Error{Kind: KindParse, Pos: pos, Message: message}
}

// NewValidationError builds a KindValidation Error for callers outside
// this package.
func NewValidationError(pos schema.Position, message string) *Error {
	return &Error{Kind: KindValidation, Pos: pos, Message: message}
}
