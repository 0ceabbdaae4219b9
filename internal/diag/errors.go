// Package diag defines the structured compile-time errors shared by the
// classifier, clause resolver, and query rewriter.
//
// All errors here are non-retryable: a statement either compiles fully or
// fails outright, and the failure carries enough structured context
// (function name, argument position, offending fragment) for the caller to
// produce an actionable diagnostic. Execution-time failures from the
// database are an external collaborator's concern and are never wrapped in
// these types.
package diag

import (
	"errors"
	"fmt"
)

// Code categorizes compilation errors.
type Code string

const (
	// CodeUnknownFunction indicates a call to a function absent from the
	// classifier table.
	CodeUnknownFunction Code = "UNKNOWN_FUNCTION"

	// CodeMissingOrder indicates an order-requiring function resolved to
	// an empty ordering.
	CodeMissingOrder Code = "MISSING_ORDER"

	// CodeNotAWindowContext indicates a plain aggregate used where no
	// window scope exists; it belongs to ordinary aggregation, not this
	// compiler.
	CodeNotAWindowContext Code = "NOT_A_WINDOW_CONTEXT"

	// CodeUnsupportedNesting indicates a window function call inside
	// another window function's arguments.
	CodeUnsupportedNesting Code = "UNSUPPORTED_NESTING"

	// CodeAmbiguousPartition indicates two window calls in one statement
	// resolved to different partitions.
	CodeAmbiguousPartition Code = "AMBIGUOUS_PARTITION"

	// CodeUnsupportedFrame indicates a rolling width or frame shape the
	// target dialect cannot represent.
	CodeUnsupportedFrame Code = "UNSUPPORTED_FRAME"
)

// Error is a structured compilation error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Function is the surface-level function name involved, if any.
	Function string

	// ArgPos is the 1-based argument position involved, 0 when not
	// applicable.
	ArgPos int

	// Fragment is the statement fragment (surface syntax) the error
	// applies to, when available.
	Fragment string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Function != "" && e.ArgPos > 0:
		return fmt.Sprintf("%s: %s (function=%s, arg=%d)", e.Code, e.Message, e.Function, e.ArgPos)
	case e.Function != "":
		return fmt.Sprintf("%s: %s (function=%s)", e.Code, e.Message, e.Function)
	case e.Fragment != "":
		return fmt.Sprintf("%s: %s (fragment=%q)", e.Code, e.Message, e.Fragment)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from an error chain, or "" if the chain holds
// no *diag.Error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsUnknownFunction reports whether err is an UNKNOWN_FUNCTION error.
// Uses errors.As to handle wrapped errors.
func IsUnknownFunction(err error) bool { return CodeOf(err) == CodeUnknownFunction }

// IsMissingOrder reports whether err is a MISSING_ORDER error.
func IsMissingOrder(err error) bool { return CodeOf(err) == CodeMissingOrder }

// IsNotAWindowContext reports whether err is a NOT_A_WINDOW_CONTEXT error.
func IsNotAWindowContext(err error) bool { return CodeOf(err) == CodeNotAWindowContext }

// IsUnsupportedNesting reports whether err is an UNSUPPORTED_NESTING error.
func IsUnsupportedNesting(err error) bool { return CodeOf(err) == CodeUnsupportedNesting }

// IsAmbiguousPartition reports whether err is an AMBIGUOUS_PARTITION error.
func IsAmbiguousPartition(err error) bool { return CodeOf(err) == CodeAmbiguousPartition }

// IsUnsupportedFrame reports whether err is an UNSUPPORTED_FRAME error.
func IsUnsupportedFrame(err error) bool { return CodeOf(err) == CodeUnsupportedFrame }
