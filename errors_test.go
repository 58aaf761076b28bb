package keel_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/junioryono/keel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{keel.ErrInvalidID, "definition id cannot be empty"},
		{keel.ErrDuplicateID, "definition id already registered"},
		{keel.ErrDefinitionNil, "definition cannot be nil"},
		{keel.ErrAlreadyResolved, "definition already resolved"},
		{keel.ErrUnknownKind, "unknown definition kind"},
		{keel.ErrNotCallable, "target is not callable"},
		{keel.ErrInvalidDefinition, "invalid definition"},
		{keel.ErrDuplicateKey, "duplicate collection key"},
		{keel.ErrNotFound, "definition not found"},
		{keel.ErrCircularDependency, "circular dependency"},
		{keel.ErrUnresolvable, "unresolvable dependency"},
		{keel.ErrTooManyArguments, "too many arguments"},
		{keel.ErrMethodMissing, "method does not exist"},
		{keel.ErrMethodNotPublic, "method is not exported"},
		{keel.ErrMethodNotStatic, "method requires a pointer receiver"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestLifetimeError(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string value", value: "forever", expected: "invalid lifetime: forever"},
		{name: "int value", value: 999, expected: "invalid lifetime: 999"},
		{name: "nil value", value: nil, expected: "invalid lifetime: <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, keel.LifetimeError{Value: tt.value}.Error())
		})
	}
}

func TestDefinitionError(t *testing.T) {
	t.Run("with id", func(t *testing.T) {
		err := keel.DefinitionError{ID: "db", Cause: keel.ErrDuplicateID}
		assert.Equal(t, `definition "db": definition id already registered`, err.Error())
		assert.ErrorIs(t, err, keel.ErrDuplicateID)
	})

	t.Run("without id", func(t *testing.T) {
		err := keel.DefinitionError{Cause: keel.ErrInvalidID}
		assert.Equal(t, "invalid definition: definition id cannot be empty", err.Error())
	})

	t.Run("invalid definition stub", func(t *testing.T) {
		err := keel.InvalidDefinition("mailer", "parameter $host of NewMailer cannot be resolved")
		assert.ErrorIs(t, err, keel.ErrInvalidDefinition)
		assert.Contains(t, err.Error(), `definition "mailer"`)
		assert.Contains(t, err.Error(), "$host")
	})
}

func TestNotFoundError(t *testing.T) {
	err := keel.NotFoundError{ID: "cache", Chain: []string{"service", "repo"}}

	assert.ErrorIs(t, err, keel.ErrNotFound)
	assert.Equal(t, `no definition found for "cache" (while resolving service -> repo)`, err.Error())
	assert.Equal(t, `no definition found for "cache"`, keel.NotFoundError{ID: "cache"}.Error())
}

func TestCircularDependencyError(t *testing.T) {
	err := keel.CircularDependencyError{Chain: []string{"a", "b", "a"}}

	assert.ErrorIs(t, err, keel.ErrCircularDependency)
	msg := err.Error()
	assert.Contains(t, msg, "circular dependency detected")
	assert.Contains(t, msg, "a (cycle)")
	assert.Contains(t, msg, "proxy")

	wrapped := fmt.Errorf("resolving app: %w", err)
	var cycle keel.CircularDependencyError
	require.True(t, errors.As(wrapped, &cycle))
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Chain)
}

func TestUnresolvableDependencyError(t *testing.T) {
	cause := keel.NotFoundError{ID: "cache"}
	err := keel.UnresolvableDependencyError{
		Param:    "$cache",
		Function: "app.NewService",
		Location: "service.go:12",
		Chain:    []string{"service"},
		Cause:    cause,
	}

	assert.ErrorIs(t, err, keel.ErrUnresolvable)
	assert.ErrorIs(t, err, keel.ErrNotFound)
	assert.Contains(t, err.Error(), "cannot resolve parameter $cache of app.NewService (service.go:12)")
	assert.Contains(t, err.Error(), "while resolving service")
}

func TestTooManyArgumentsError(t *testing.T) {
	positional := keel.TooManyArgumentsError{Function: "app.NewDB", Given: 3, Accepted: 2}
	assert.ErrorIs(t, positional, keel.ErrTooManyArguments)
	assert.Equal(t, "app.NewDB accepts 2 positional arguments, 3 given", positional.Error())

	named := keel.TooManyArgumentsError{Function: "app.NewDB", Unknown: []string{"$dsn", "$pool"}}
	assert.Equal(t, "app.NewDB has no parameter named $dsn, $pool", named.Error())
}

func TestAutowireError(t *testing.T) {
	type handler struct{}
	err := keel.AutowireError{Type: reflect.TypeFor[*handler](), Method: "Priority", Cause: keel.ErrMethodNotStatic}

	assert.ErrorIs(t, err, keel.ErrMethodNotStatic)
	assert.Equal(t, "method *handler.Priority: method requires a pointer receiver", err.Error())
}

func TestTypeMismatchError(t *testing.T) {
	err := keel.TypeMismatchError{
		Expected: reflect.TypeFor[int](),
		Actual:   reflect.TypeFor[string](),
		Context:  "parameter $port of NewServer",
	}
	assert.Equal(t, "parameter $port of NewServer: expected int, got string", err.Error())

	nilActual := keel.TypeMismatchError{Expected: reflect.TypeFor[[]string](), Context: "value"}
	assert.Equal(t, "value: expected []string, got <nil>", nilActual.Error())
}

func TestConstructorPanicError(t *testing.T) {
	err := keel.ConstructorPanicError{Function: "app.NewCache", Panic: "boom", Stack: []byte("goroutine 1")}

	msg := err.Error()
	assert.Contains(t, msg, "app.NewCache panicked: boom")
	assert.Contains(t, msg, "Stack trace:")
	assert.Contains(t, msg, "goroutine 1")
}

func TestModuleError(t *testing.T) {
	err := keel.ModuleError{Module: "storage", Cause: keel.DefinitionError{ID: "db", Cause: keel.ErrDuplicateID}}

	assert.Equal(t, `module "storage": definition "db": definition id already registered`, err.Error())
	assert.ErrorIs(t, err, keel.ErrDuplicateID)
}
