package keel

import (
	"maps"
	"strings"
)

// Tag option keys understood by the tagged collection resolver.
const (
	OptionPriority       = "priority"
	OptionPriorityMethod = "priority.method"
	OptionKey            = "key"

	// selfPrefix marks a key option value that names a method on the member's type.
	selfPrefix = "self::"
)

// Tag attaches a definition to a named group.
type Tag struct {
	Name     string
	Priority *int64
	Options  map[string]any
}

// TagOption configures a Tag.
type TagOption func(*Tag)

// NewTag creates a tag with the given options applied.
func NewTag(name string, opts ...TagOption) Tag {
	t := Tag{Name: strings.TrimSpace(name)}
	for _, opt := range opts {
		if opt != nil {
			opt(&t)
		}
	}
	return t
}

// Priority sets an explicit numeric priority. Higher values sort first.
func Priority(n int64) TagOption {
	return func(t *Tag) {
		t.Priority = &n
	}
}

// PriorityMethod names a method on the member's type that returns its priority.
func PriorityMethod(name string) TagOption {
	return TagOpt(OptionPriorityMethod, name)
}

// Key sets a literal collection key.
func Key(key string) TagOption {
	return TagOpt(OptionKey, key)
}

// KeyMethod names a method on the member's type that returns its collection key.
func KeyMethod(name string) TagOption {
	return TagOpt(OptionKey, selfPrefix+name)
}

// TagOpt sets an arbitrary tag option.
func TagOpt(key string, value any) TagOption {
	return func(t *Tag) {
		if t.Options == nil {
			t.Options = make(map[string]any)
		}
		t.Options[key] = value
	}
}

// Option returns the option stored under key.
func (t Tag) Option(key string) (any, bool) {
	v, ok := t.Options[key]
	return v, ok
}

func (t Tag) clone() Tag {
	c := t
	if t.Priority != nil {
		p := *t.Priority
		c.Priority = &p
	}
	if t.Options != nil {
		c.Options = maps.Clone(t.Options)
	}
	return c
}
