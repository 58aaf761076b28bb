// Package keel provides a dependency injection container driven by
// definitions, and a compiler that turns the same definitions into plain Go.
//
// # Overview
//
// A Registry maps ids to Definitions. A Container resolves ids on demand by
// reflection; the compiler package emits a container type whose accessors
// call constructors directly. Both resolve arguments with the same
// ArgumentResolver, so a registry behaves the same way in either form.
//
// # Basic Usage
//
//	reg, err := keel.Build(
//	    keel.Provide(
//	        keel.Construct(NewLogger, keel.AsSingleton()),
//	        keel.Construct(NewUserService),
//	        keel.Value("app.name", "billing"),
//	    ),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := keel.New(reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	users, err := keel.Resolve[*UserService](c)
//
// # Definitions
//
// Seven kinds of definition are built in:
//
//   - Autowire: builds a type through a constructor or by injecting tagged
//     struct fields, then runs setup methods
//   - Factory: invokes a method of a factory type
//   - Callable: invokes a function
//   - Value: a literal
//   - Reference: resolves another id
//   - Proxy: yields a ProxyFunc that resolves another id when invoked
//   - TaggedAs: collects every definition carrying a tag
//
// Definitions created with an empty id (Ref, Tagged, ProxyOf and nested
// Autowire, Factory and Callable definitions) may be passed as arguments and
// are built in place.
//
// # Argument Resolution
//
// Each parameter is resolved from the first source that supplies it:
//
//  1. an argument bound by position or by name
//  2. a metadata hint (for example an inject or tagged struct tag)
//  3. the container, by the TypeID of the parameter type
//  4. the parameter's default, or its zero value when it is optional
//
// Parameters of type Getter receive the container itself.
//
// # Lifetimes
//
// Singleton values are built once per container. Transient values are built
// on every request. Definitions with the Inherit lifetime follow
// WithSingletonDefault.
//
// # Tagged Collections
//
// A TaggedAs definition gathers the definitions carrying its tag, ordered by
// priority (highest first, ties in declaration order):
//
//	keel.Construct(NewAuthMiddleware, keel.WithTag("http.middleware", keel.Priority(100)))
//	keel.Construct(NewLogMiddleware, keel.WithTag("http.middleware"))
//	keel.TaggedAs("middlewares", "http.middleware")
//
// Collections inject into []T and map[string]T parameters. Lazy collections
// resolve their members while iterating.
//
// # Zero Configuration
//
// Named struct types without a definition are autowired on first use.
// Metadata hints can redirect an interface to an implementation, pick a
// factory or constructor, and add tags or setup calls. Disable discovery with
// WithZeroConfig(false).
//
// # Error Handling
//
// Errors are typed and match sentinels with errors.Is:
//
//	_, err := c.Get("db")
//	if errors.Is(err, keel.ErrCircularDependency) {
//	    var cycle keel.CircularDependencyError
//	    errors.As(err, &cycle)
//	    log.Printf("cycle: %v", cycle.Chain)
//	}
//
// # Thread Safety
//
// Registries and containers are not safe for concurrent use. Use
// Synchronized to share a container between goroutines.
package keel
