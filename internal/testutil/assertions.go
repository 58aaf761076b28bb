package testutil

import (
	"errors"
	"testing"

	"github.com/junioryono/keel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolvable checks that id resolves to a non-nil T
func AssertResolvable[T any](t testing.TB, g keel.Getter, id string) T {
	t.Helper()
	v, err := keel.GetAs[T](g, id)
	require.NoError(t, err, "failed to resolve %q", id)
	require.NotNil(t, v, "resolved %q is nil", id)
	return v
}

// AssertNotFound checks that resolving id fails with a not found error
func AssertNotFound(t testing.TB, g keel.Getter, id string) {
	t.Helper()
	_, err := g.Get(id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, keel.ErrNotFound), "expected not found error, got: %v", err)
}

// AssertSameInstance checks that two resolutions of id return the same value
func AssertSameInstance(t testing.TB, g keel.Getter, id string) {
	t.Helper()
	first, err := g.Get(id)
	require.NoError(t, err)
	second, err := g.Get(id)
	require.NoError(t, err)
	assert.Same(t, first, second, "expected %q to be cached", id)
}

// AssertDistinctInstances checks that two resolutions of id return different pointers
func AssertDistinctInstances(t testing.TB, g keel.Getter, id string) {
	t.Helper()
	first, err := g.Get(id)
	require.NoError(t, err)
	second, err := g.Get(id)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "expected %q to be rebuilt", id)
}

// AssertCycle checks that err is a circular dependency with the given chain
func AssertCycle(t testing.TB, err error, chain ...string) {
	t.Helper()
	require.Error(t, err)
	var cycle keel.CircularDependencyError
	require.True(t, errors.As(err, &cycle), "expected circular dependency error, got: %v", err)
	assert.Equal(t, chain, cycle.Chain)
}

// AssertHandlerNames checks the names of handlers in order
func AssertHandlerNames(t testing.TB, handlers []Handler, names ...string) {
	t.Helper()
	got := make([]string, len(handlers))
	for i, h := range handlers {
		got[i] = h.Name()
	}
	assert.Equal(t, names, got)
}
