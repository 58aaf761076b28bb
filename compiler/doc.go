// Package compiler generates Go source for a container that resolves the ids
// of a keel.Registry without reflection.
//
// The generated type implements keel.Getter. Every id gets an accessor
// method holding the construction code for its definition: constructors,
// factory methods and callables are called directly, values are written as
// literals, and tagged collections are ordered at compile time. Resolution
// through the generated type honors the same lifetimes and reports the same
// circular dependencies as keel.Container.
//
// Functions are referenced by their qualified names. Closures are copied
// from their source files, which must be readable when the compiler runs and
// belong to the generated package.
//
// A typical build step:
//
//	cfg, err := compiler.LoadConfig("keel.yaml", ".env")
//	if err != nil {
//		return err
//	}
//	c, err := compiler.New(cfg, compiler.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	res, err := c.Compile(registry)
//	if err != nil {
//		return err
//	}
//	return c.WriteFile(res)
package compiler
