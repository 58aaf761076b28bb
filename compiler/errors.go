package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrCompilerBusy is returned when Compile is called during a compilation.
	ErrCompilerBusy = errors.New("compiler is busy")

	// ErrUnsupportedValue marks values that have no source representation.
	ErrUnsupportedValue = errors.New("value cannot be compiled")

	// ErrUnsupportedKind marks definitions of kinds the compiler cannot emit.
	ErrUnsupportedKind = errors.New("definition kind cannot be compiled")

	// ErrUnsupportedFunc marks functions that cannot be referenced by name.
	ErrUnsupportedFunc = errors.New("function cannot be referenced")

	// ErrNoOutput is returned by WriteFile when the config has no output path.
	ErrNoOutput = errors.New("no output path configured")
)

// CompileError reports a definition that could not be compiled.
type CompileError struct {
	ID    string
	Cause error
}

func (e CompileError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.ID, e.Cause)
}

func (e CompileError) Unwrap() error {
	return e.Cause
}

// ClosureError reports a closure whose source could not be extracted.
type ClosureError struct {
	Func  string
	File  string
	Line  int
	Cause error
}

func (e ClosureError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("closure %s: %v", e.Func, e.Cause)
	}
	return fmt.Sprintf("closure %s at %s:%d: %v", e.Func, e.File, e.Line, e.Cause)
}

func (e ClosureError) Unwrap() error {
	return e.Cause
}

// invalidError marks errors the invalid behavior policy may turn into stubs.
type invalidError struct {
	err error
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return invalidError{err: err}
}

func (e invalidError) Error() string {
	return e.err.Error()
}

func (e invalidError) Unwrap() error {
	return e.err
}

func isInvalid(err error) bool {
	var ie invalidError
	return errors.As(err, &ie)
}
