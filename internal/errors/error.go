package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryDiscovery Category = "discovery"
	CategoryIO        Category = "io"
	CategoryCLI       Category = "cli"
)

// Registered pipeline error codes.
const (
	CodeDiscovery   = "E201"
	CodeConfigRead  = "E202"
	CodeConfigWrite = "E203"
	CodeOutputWrite = "E204"
	CodeCanceled    = "E205"
)

// GenError is a structured error with the failing stage, the path involved and a fix hint.
type GenError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (config, discovery, io, cli).
	Category Category

	// Stage is the pipeline stage that failed, if any.
	Stage string

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the file or directory the error refers to.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *GenError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Stage)
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *GenError) Unwrap() error {
	return e.Wrapped
}

// WithStage records the pipeline stage that failed.
func (e *GenError) WithStage(stage string) *GenError {
	e.Stage = stage
	return e
}

// WithPath records the file or directory involved.
func (e *GenError) WithPath(path string) *GenError {
	e.Path = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *GenError) WithSuggestion(s string) *GenError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *GenError) WithDetail(d string) *GenError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *GenError) Wrap(err error) *GenError {
	e.Wrapped = err
	return e
}

// New creates a GenError from a registered error code.
func New(code string) *GenError {
	template, ok := registry[code]
	if !ok {
		return &GenError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &GenError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new GenError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *GenError {
	return &GenError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a GenError.
// Errors that already are (or wrap) a *GenError are returned unchanged.
func FromError(err error, code string) *GenError {
	if err == nil {
		return nil
	}
	var ge *GenError
	if stderrors.As(err, &ge) {
		return ge
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a *GenError with the given code.
func HasCode(err error, code string) bool {
	var ge *GenError
	if !stderrors.As(err, &ge) {
		return false
	}
	return ge.Code == code
}

// StageOf returns the failing stage recorded on err, or "" if there is none.
func StageOf(err error) string {
	var ge *GenError
	if !stderrors.As(err, &ge) {
		return ""
	}
	return ge.Stage
}

// CodeOf returns the code of the *GenError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var ge *GenError
	if !stderrors.As(err, &ge) {
		return ""
	}
	return ge.Code
}
