package keel

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
)

// Getter is the read side of a container. It is implemented by Container and
// by compiled containers.
type Getter interface {
	Has(id string) bool
	Get(id string) (any, error)
}

// ProxyFunc resolves its target when invoked.
type ProxyFunc func() (any, error)

// GetAs resolves id and asserts the value to T.
func GetAs[T any](g Getter, id string) (T, error) {
	v, err := g.Get(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return Cast[T](v, fmt.Sprintf("value of %q", id))
}

// Cast asserts v to T. A nil v yields the zero value of T.
func Cast[T any](v any, context string) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return t, TypeMismatchError{Expected: reflect.TypeFor[T](), Actual: reflect.TypeOf(v), Context: context}
	}
	return t, nil
}

// ProxyAs adapts p to a typed deferred resolver.
func ProxyAs[T any](p ProxyFunc) func() (T, error) {
	return func() (T, error) {
		v, err := p()
		if err != nil {
			var zero T
			return zero, err
		}
		return Cast[T](v, "proxy result")
	}
}

// Collection is an ordered, resolved tagged collection.
type Collection struct {
	keys   []string
	values []any
	index  map[string]int
	keyed  bool
}

// NewCollection creates a collection. With nil keys the collection is
// positional and keyed by index.
func NewCollection(keys []string, values []any) *Collection {
	c := &Collection{values: values, keyed: keys != nil}
	if keys == nil {
		keys = positionalKeys(len(values))
	}
	c.keys = keys
	c.index = make(map[string]int, len(keys))
	for i, k := range keys {
		c.index[k] = i
	}
	return c
}

// Len returns the number of members.
func (c *Collection) Len() int { return len(c.values) }

// Keyed reports whether members are keyed rather than positional.
func (c *Collection) Keyed() bool { return c.keyed }

// Keys returns member keys in order.
func (c *Collection) Keys() []string { return slices.Clone(c.keys) }

// Values returns member values in order.
func (c *Collection) Values() []any { return slices.Clone(c.values) }

// At returns the i-th member.
func (c *Collection) At(i int) any { return c.values[i] }

// Get returns the member stored under key.
func (c *Collection) Get(key string) (any, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.values[i], true
}

// All iterates key/value pairs in order.
func (c *Collection) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for i, k := range c.keys {
			if !yield(k, c.values[i]) {
				return
			}
		}
	}
}

// SliceOf returns the members of c asserted to T.
func SliceOf[T any](c *Collection) ([]T, error) {
	out := make([]T, 0, c.Len())
	for k, v := range c.All() {
		t, err := Cast[T](v, fmt.Sprintf("collection member %q", k))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// MapOf returns the members of c keyed by their collection keys and asserted to T.
func MapOf[T any](c *Collection) (map[string]T, error) {
	out := make(map[string]T, c.Len())
	for k, v := range c.All() {
		t, err := Cast[T](v, fmt.Sprintf("collection member %q", k))
		if err != nil {
			return nil, err
		}
		out[k] = t
	}
	return out, nil
}

// LazyCollection resolves its members from a Getter while iterating.
// Iteration can be restarted; each pass resolves members again, so transient
// members are rebuilt.
type LazyCollection struct {
	getter Getter
	keys   []string
	ids    []string
	keyed  bool
	err    error
}

// NewLazyCollection creates a lazy collection over ids. With nil keys the
// collection is positional.
func NewLazyCollection(g Getter, keys, ids []string) *LazyCollection {
	c := &LazyCollection{getter: g, ids: ids, keyed: keys != nil}
	if keys == nil {
		keys = positionalKeys(len(ids))
	}
	c.keys = keys
	return c
}

// Len returns the number of members.
func (c *LazyCollection) Len() int { return len(c.ids) }

// Keyed reports whether members are keyed rather than positional.
func (c *LazyCollection) Keyed() bool { return c.keyed }

// Keys returns member keys in order.
func (c *LazyCollection) Keys() []string { return slices.Clone(c.keys) }

// IDs returns member ids in order.
func (c *LazyCollection) IDs() []string { return slices.Clone(c.ids) }

// All resolves and yields members in order. Iteration stops at the first
// resolution failure, which is then reported by Err.
func (c *LazyCollection) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		c.err = nil
		for i, id := range c.ids {
			v, err := c.getter.Get(id)
			if err != nil {
				c.err = err
				return
			}
			if !yield(c.keys[i], v) {
				return
			}
		}
	}
}

// Err returns the failure that ended the last iteration, if any.
func (c *LazyCollection) Err() error { return c.err }

// Get resolves the member stored under key.
func (c *LazyCollection) Get(key string) (any, error) {
	i := slices.Index(c.keys, key)
	if i < 0 {
		return nil, NotFoundError{ID: key}
	}
	return c.getter.Get(c.ids[i])
}

// Resolve resolves every member into an eager Collection.
func (c *LazyCollection) Resolve() (*Collection, error) {
	values := make([]any, 0, len(c.ids))
	for _, v := range c.All() {
		values = append(values, v)
	}
	if c.err != nil {
		return nil, c.err
	}
	var keys []string
	if c.keyed {
		keys = slices.Clone(c.keys)
	}
	return NewCollection(keys, values), nil
}

func positionalKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}
