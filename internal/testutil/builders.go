package testutil

import (
	"testing"

	"github.com/junioryono/keel"
	"github.com/stretchr/testify/require"
)

// RegistryBuilder provides a fluent interface for building test registries
type RegistryBuilder struct {
	t       testing.TB
	modules []keel.Module
}

// NewRegistryBuilder creates a new RegistryBuilder
func NewRegistryBuilder(t testing.TB) *RegistryBuilder {
	return &RegistryBuilder{t: t}
}

// With adds definitions in order
func (b *RegistryBuilder) With(defs ...keel.Definition) *RegistryBuilder {
	b.modules = append(b.modules, keel.Provide(defs...))
	return b
}

// WithModule adds a module
func (b *RegistryBuilder) WithModule(m keel.Module) *RegistryBuilder {
	b.modules = append(b.modules, m)
	return b
}

// Registry builds the registry, failing the test on error
func (b *RegistryBuilder) Registry() *keel.Registry {
	b.t.Helper()
	reg, err := keel.Build(b.modules...)
	require.NoError(b.t, err)
	return reg
}

// Container builds a container over the registry, failing the test on error
func (b *RegistryBuilder) Container(opts ...keel.Option) *keel.Container {
	b.t.Helper()
	c, err := keel.New(b.Registry(), opts...)
	require.NoError(b.t, err)
	return c
}
