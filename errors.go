package keel

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is; use errors.As for the typed context.

var (
	// Definition errors.
	ErrInvalidID         = errors.New("definition id cannot be empty")
	ErrDuplicateID       = errors.New("definition id already registered")
	ErrDefinitionNil     = errors.New("definition cannot be nil")
	ErrAlreadyResolved   = errors.New("definition already resolved")
	ErrUnknownKind       = errors.New("unknown definition kind")
	ErrNotCallable       = errors.New("target is not callable")
	ErrInvalidDefinition = errors.New("invalid definition")
	ErrDuplicateKey      = errors.New("duplicate collection key")

	// Resolution errors.
	ErrNotFound           = errors.New("definition not found")
	ErrCircularDependency = errors.New("circular dependency")
	ErrUnresolvable       = errors.New("unresolvable dependency")
	ErrTooManyArguments   = errors.New("too many arguments")

	// Autowire method errors.
	ErrMethodMissing   = errors.New("method does not exist")
	ErrMethodNotPublic = errors.New("method is not exported")
	ErrMethodNotStatic = errors.New("method requires a pointer receiver")
)

var (
	_ error = LifetimeError{}
	_ error = DefinitionError{}
	_ error = NotFoundError{}
	_ error = CircularDependencyError{}
	_ error = UnresolvableDependencyError{}
	_ error = TooManyArgumentsError{}
	_ error = AutowireError{}
	_ error = TypeMismatchError{}
	_ error = ConstructorPanicError{}
	_ error = ModuleError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime: %v", e.Value)
}

// DefinitionError reports a malformed definition or an illegal registry operation.
type DefinitionError struct {
	ID    string
	Cause error
}

func (e DefinitionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid definition: %v", e.Cause)
	}
	return fmt.Sprintf("definition %q: %v", e.ID, e.Cause)
}

func (e DefinitionError) Unwrap() error {
	return e.Cause
}

// InvalidDefinition returns the error raised by a compiled stub for a definition
// that could not be validated at compile time.
func InvalidDefinition(id, reason string) error {
	return DefinitionError{ID: id, Cause: fmt.Errorf("%w: %s", ErrInvalidDefinition, reason)}
}

// NotFoundError indicates that an id has no definition and cannot be discovered.
type NotFoundError struct {
	ID    string
	Chain []string
}

func (e NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("no definition found for %q", e.ID))
	if len(e.Chain) > 0 {
		b.WriteString(fmt.Sprintf(" (while resolving %s)", formatChain(e.Chain)))
	}
	return b.String()
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CircularDependencyError reports an id that was requested while it was
// still being built. Chain lists the active resolution stack in entry order,
// followed by the re-entered id.
type CircularDependencyError struct {
	Chain []string
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for i, id := range e.Chain {
		if i == len(e.Chain)-1 {
			b.WriteString(fmt.Sprintf("    %s (cycle)\n", id))
			break
		}
		b.WriteString(fmt.Sprintf("    %s\n", id))
		b.WriteString("      ↓\n")
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Inject a proxy or a lazy tagged collection to defer one side\n")
	b.WriteString("  • Move the shared state into a third definition\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func (e CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// UnresolvableDependencyError indicates that no argument source could satisfy a parameter.
type UnresolvableDependencyError struct {
	Param    string
	Function string
	Location string
	Chain    []string
	Cause    error
}

func (e UnresolvableDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("cannot resolve parameter %s of %s", e.Param, e.Function))
	if e.Location != "" {
		b.WriteString(fmt.Sprintf(" (%s)", e.Location))
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	if len(e.Chain) > 0 {
		b.WriteString(fmt.Sprintf("\n  while resolving %s", formatChain(e.Chain)))
	}
	return b.String()
}

func (e UnresolvableDependencyError) Unwrap() error {
	return e.Cause
}

func (e UnresolvableDependencyError) Is(target error) bool {
	return target == ErrUnresolvable
}

// TooManyArgumentsError indicates bound arguments that match no parameter.
type TooManyArgumentsError struct {
	Function string
	Given    int
	Accepted int
	Unknown  []string
}

func (e TooManyArgumentsError) Error() string {
	if len(e.Unknown) > 0 {
		return fmt.Sprintf("%s has no parameter named %s", e.Function, strings.Join(e.Unknown, ", "))
	}
	return fmt.Sprintf("%s accepts %d positional arguments, %d given", e.Function, e.Accepted, e.Given)
}

func (e TooManyArgumentsError) Is(target error) bool {
	return target == ErrTooManyArguments
}

// AutowireError reports a method named by configuration that cannot be invoked
// statically on a type.
type AutowireError struct {
	Type   reflect.Type
	Method string
	Cause  error
}

func (e AutowireError) Error() string {
	return fmt.Sprintf("method %s.%s: %v", formatType(e.Type), e.Method, e.Cause)
}

func (e AutowireError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a type assertion or conversion failed.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// ConstructorPanicError indicates a user function panicked while building a value.
type ConstructorPanicError struct {
	Function string
	Panic    any
	Stack    []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s panicked: %v\n", e.Function, e.Panic))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Check for nil pointer dereferences in the function\n")
	b.WriteString("  • Return an error instead of panicking\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

func formatChain(chain []string) string {
	return strings.Join(chain, " -> ")
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
