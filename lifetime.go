package keel

import (
	"encoding/json"
	"fmt"
)

// Lifetime specifies whether a definition's value is cached by the container.
// The zero value defers to the container's configured default.
type Lifetime int

const (
	// Inherit uses the container (or compiler) singleton default.
	Inherit Lifetime = iota

	// Singleton values are built on first request and cached for the life of the container.
	Singleton

	// Transient values are rebuilt on every request.
	Transient
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Inherit:
		return "Inherit"
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is one of the known values.
func (l Lifetime) IsValid() bool {
	return l >= Inherit && l <= Transient
}

// Resolve reports whether a value with this lifetime is cached, given the default policy.
func (l Lifetime) Resolve(singletonDefault bool) bool {
	switch l {
	case Singleton:
		return true
	case Transient:
		return false
	default:
		return singletonDefault
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, LifetimeError{Value: int(l)}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Inherit", "inherit", "":
		*l = Inherit
	case "Singleton", "singleton":
		*l = Singleton
	case "Transient", "transient":
		*l = Transient
	default:
		return LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}
