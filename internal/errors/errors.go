// Package errors defines the error kinds reported by dotscaffold and their
// mapping to process exit codes.
package errors

import (
	"errors"
	"fmt"
	"io"
)

// Kind is a stable error code string.
type Kind string

const (
	// EInputValidation is a missing or blank required field, or a target
	// directory that does not exist. Always raised before any mutation.
	EInputValidation Kind = "E_INPUT_VALIDATION"
	// EToolInvocation is an external command that exited non-zero or could
	// not be launched.
	EToolInvocation Kind = "E_TOOL_INVOCATION"
	// EFilesystem is a directory or file creation failure.
	EFilesystem Kind = "E_FILESYSTEM"
	// ERepositoryInit is a git init, stage or commit failure.
	ERepositoryInit Kind = "E_REPOSITORY_INIT"
	// EPartial marks a run that finished with at least one failed step.
	EPartial Kind = "E_PARTIAL"
	EInternal Kind = "E_INTERNAL"
)

// ScaffoldError is the classified error type used across dotscaffold.
type ScaffoldError struct {
	Kind    Kind
	Msg     string
	Cause   error
	Details map[string]string
}

// Error returns "KIND: message[: cause]".
func (e *ScaffoldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ScaffoldError) Unwrap() error {
	return e.Cause
}

// New creates a ScaffoldError with the given kind and message.
func New(kind Kind, msg string) error {
	return &ScaffoldError{Kind: kind, Msg: msg}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &ScaffoldError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a ScaffoldError wrapping an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &ScaffoldError{Kind: kind, Msg: msg, Cause: err}
}

// WrapWithDetails is Wrap with structured context attached.
// The details map is copied.
func WrapWithDetails(kind Kind, msg string, err error, details map[string]string) error {
	return &ScaffoldError{Kind: kind, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// KindOf extracts the kind from an error, or "" if err is not a ScaffoldError.
func KindOf(err error) Kind {
	var se *ScaffoldError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Is reports whether err is a ScaffoldError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the process exit code for err:
// 0 for nil, 2 for input validation errors, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if KindOf(err) == EInputValidation {
		return 2
	}
	return 1
}

// Print writes err to w as:
//
//	error_code: <KIND>
//	<message>
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var se *ScaffoldError
	if errors.As(err, &se) {
		fmt.Fprintf(w, "error_code: %s\n", se.Kind)
		if se.Cause != nil {
			fmt.Fprintf(w, "%s: %v\n", se.Msg, se.Cause)
		} else {
			fmt.Fprintln(w, se.Msg)
		}
		return
	}
	fmt.Fprintln(w, err.Error())
}
