// Package app holds the application fixture compiled ahead of time.
// container_gen.go is regenerated from keel.yaml and checked against the
// live container by the compiler tests.
package app

//go:generate go run ./gen
