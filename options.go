package keel

import (
	"reflect"

	"go.uber.org/zap"
)

// Option configures a Container.
type Option interface {
	apply(*options)
}

type options struct {
	logger           *zap.Logger
	singletonDefault bool
	zeroConfig       bool
	providers        []MetadataProvider
	types            []reflect.Type
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		zeroConfig: true,
	}
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// WithSingletonDefault sets whether definitions with an Inherit lifetime are cached.
// The default is false.
func WithSingletonDefault(singleton bool) Option {
	return optionFunc(func(o *options) {
		o.singletonDefault = singleton
	})
}

// WithZeroConfig sets whether types without a definition may be built on
// demand. The default is true.
func WithZeroConfig(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.zeroConfig = enabled
	})
}

// WithMetadata adds a metadata provider. Providers are consulted after the
// built-in StructTags provider, in the order given.
func WithMetadata(p MetadataProvider) Option {
	return optionFunc(func(o *options) {
		if p != nil {
			o.providers = append(o.providers, p)
		}
	})
}

// WithTypes makes types resolvable by their TypeID without a definition.
func WithTypes(types ...reflect.Type) Option {
	return optionFunc(func(o *options) {
		o.types = append(o.types, types...)
	})
}
