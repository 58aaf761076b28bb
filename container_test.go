package keel_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/junioryono/keel"
	"github.com/junioryono/keel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Test types for lifetime scenarios
type (
	part struct {
		id string
	}

	widget struct {
		part *part
	}

	ping struct {
		pong *pong
	}

	pong struct {
		ping func() (*ping, error)
	}

	envDefinition struct {
		keel.Base
		key string
	}

	opaqueDefinition struct {
		keel.Base
	}
)

func (*envDefinition) Kind() keel.Kind { return keel.Kind(42) }

func (d *envDefinition) Build(g keel.Getter) (any, error) {
	name, err := keel.GetAs[string](g, "app.name")
	if err != nil {
		return nil, err
	}
	return name + ":" + d.key, nil
}

func (*opaqueDefinition) Kind() keel.Kind { return keel.Kind(43) }

func appContainer(t *testing.T, opts ...keel.Option) *keel.Container {
	t.Helper()
	return testutil.NewRegistryBuilder(t).WithModule(testutil.AppModule()).Container(opts...)
}

func TestNew(t *testing.T) {
	t.Run("nil registry", func(t *testing.T) {
		t.Parallel()

		c, err := keel.New(nil)
		require.NoError(t, err)
		assert.False(t, c.Has("anything"))
	})

	t.Run("unique ids", func(t *testing.T) {
		t.Parallel()

		first, err := keel.New(nil)
		require.NoError(t, err)
		second, err := keel.New(nil)
		require.NoError(t, err)

		_, err = uuid.Parse(first.ID())
		require.NoError(t, err)
		assert.NotEqual(t, first.ID(), second.ID())
	})

	t.Run("takes a copy of the registry", func(t *testing.T) {
		t.Parallel()

		reg, err := keel.NewRegistry(keel.Value("a", 1))
		require.NoError(t, err)
		c, err := keel.New(reg)
		require.NoError(t, err)

		require.NoError(t, reg.Add(keel.Value("b", 2)))
		assert.False(t, c.Has("b"))
	})

	t.Run("custom kinds must build themselves", func(t *testing.T) {
		t.Parallel()

		reg, err := keel.NewRegistry(&opaqueDefinition{Base: keel.NewBase("opaque")})
		require.NoError(t, err)

		_, err = keel.New(reg)
		require.Error(t, err)
		assert.ErrorIs(t, err, keel.ErrUnknownKind)
	})
}

func TestContainer_Get(t *testing.T) {
	t.Run("constructor with bound and typed arguments", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		db := testutil.AssertResolvable[*testutil.Database](t, c, keel.TypeIDOf[*testutil.Database]())
		assert.Equal(t, "postgres://localhost/app", db.DSN)

		logger := testutil.AssertResolvable[testutil.Logger](t, c, testutil.LoggerID)
		assert.Same(t, logger, db.Logger)
	})

	t.Run("reference", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		viaRef, err := keel.Resolve[testutil.Logger](c)
		require.NoError(t, err)
		direct, err := c.Get(testutil.LoggerID)
		require.NoError(t, err)
		assert.Same(t, direct, viaRef)
	})

	t.Run("value", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		cfg := testutil.AssertResolvable[testutil.Config](t, c, testutil.AppConfigID)
		assert.Equal(t, testutil.AppConfig, cfg)
	})

	t.Run("callable with variadic arguments", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		greeting := testutil.AssertResolvable[string](t, c, testutil.GreetingID)
		assert.Equal(t, "hello, ada and grace", greeting)
	})

	t.Run("setup calls run by priority", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		mailer := testutil.AssertResolvable[*testutil.Mailer](t, c, testutil.MailerID)
		assert.Equal(t, "smtp.local", mailer.Host)
		assert.Equal(t, 2525, mailer.Port)
		assert.Equal(t, []string{"SetPort", "Dial"}, mailer.Calls)
	})

	t.Run("factory", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		client := testutil.AssertResolvable[*testutil.Client](t, c, testutil.ClientID)
		assert.Equal(t, "api", client.Name)
		assert.NotNil(t, client.Logger)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		testutil.AssertNotFound(t, c, "missing")

		_, err := c.Get("missing")
		var nf keel.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "missing", nf.ID)
		assert.Empty(t, nf.Chain)
	})

	t.Run("missing nested reference carries the chain", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewDatabase, keel.WithArgs(keel.Ref("dsn"), keel.Ref("log")))).
			Container()

		_, err := keel.Resolve[*testutil.Database](c)
		var nf keel.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "dsn", nf.ID)
		assert.Equal(t, []string{keel.TypeIDOf[*testutil.Database]()}, nf.Chain)
	})

	t.Run("custom kind", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(
				keel.Value("app.name", "billing"),
				&envDefinition{Base: keel.NewBase("env.region"), key: "region"},
			).
			Container()

		v, err := c.Get("env.region")
		require.NoError(t, err)
		assert.Equal(t, "billing:region", v)
	})
}

func TestContainer_Lifetimes(t *testing.T) {
	t.Run("singleton is cached", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		testutil.AssertSameInstance(t, c, testutil.LoggerID)
		assert.True(t, c.Resolved(testutil.LoggerID))
	})

	t.Run("transient is rebuilt", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		id := keel.TypeIDOf[*testutil.Service]()
		testutil.AssertDistinctInstances(t, c, id)
		assert.False(t, c.Resolved(id))

		first := testutil.AssertResolvable[*testutil.Service](t, c, id)
		second := testutil.AssertResolvable[*testutil.Service](t, c, id)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Same(t, first.Database, second.Database)
	})

	t.Run("singleton default", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t, keel.WithSingletonDefault(true))

		testutil.AssertSameInstance(t, c, keel.TypeIDOf[*testutil.Service]())
	})

	t.Run("unregistered factory is built inline", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t, keel.WithSingletonDefault(true))

		client := testutil.AssertResolvable[*testutil.Client](t, c, testutil.ClientID)
		assert.Equal(t, "api", client.Name)
		assert.False(t, c.Resolved(keel.TypeIDOf[*testutil.ClientFactory]()))

		logger := testutil.AssertResolvable[*testutil.MemoryLogger](t, c, testutil.LoggerID)
		assert.Same(t, logger, client.Logger)
	})

	t.Run("registered factory follows its lifetime", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(keel.AutowireOf[*testutil.ClientFactory](keel.AsSingleton())).
			Container()

		testutil.AssertResolvable[*testutil.Client](t, c, testutil.ClientID)
		assert.True(t, c.Resolved(keel.TypeIDOf[*testutil.ClientFactory]()))
	})

	t.Run("explicit transient beats the singleton default", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewCounter, keel.AsTransient())).
			Container(keel.WithSingletonDefault(true))

		testutil.AssertDistinctInstances(t, c, keel.TypeIDOf[*testutil.Counter]())
	})

	t.Run("singleton depending on a transient builds it once", func(t *testing.T) {
		t.Parallel()

		var parts, widgets int
		c := testutil.NewRegistryBuilder(t).
			With(
				keel.Construct(func() *part {
					parts++
					return &part{id: uuid.NewString()}
				}),
				keel.Construct(func(p *part) *widget {
					widgets++
					return &widget{part: p}
				}, keel.AsSingleton()),
			).
			Container()

		first, err := keel.Resolve[*widget](c)
		require.NoError(t, err)
		second, err := keel.Resolve[*widget](c)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Same(t, first.part, second.part)
		assert.Equal(t, 1, widgets)
		assert.Equal(t, 1, parts)

		_, err = keel.Resolve[*part](c)
		require.NoError(t, err)
		assert.Equal(t, 2, parts)
	})
}

func TestContainer_Cycles(t *testing.T) {
	cyclic := func(t *testing.T) *keel.Container {
		t.Helper()
		return testutil.NewRegistryBuilder(t).
			With(
				keel.Callable("A", testutil.Greeting, keel.WithArgs(keel.Ref("B"))),
				keel.Callable("B", testutil.Greeting, keel.WithArgs(keel.Ref("C"))),
				keel.Callable("C", testutil.Greeting, keel.WithArgs(keel.Ref("A"))),
			).
			Container()
	}

	t.Run("chain in entry order", func(t *testing.T) {
		t.Parallel()

		_, err := cyclic(t).Get("A")
		assert.ErrorIs(t, err, keel.ErrCircularDependency)
		testutil.AssertCycle(t, err, "A", "B", "C", "A")
	})

	t.Run("detected from any entry point", func(t *testing.T) {
		t.Parallel()

		_, err := cyclic(t).Get("B")
		testutil.AssertCycle(t, err, "B", "C", "A", "B")

		_, err = cyclic(t).Get("C")
		testutil.AssertCycle(t, err, "C", "A", "B", "C")
	})

	t.Run("typed dependencies", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewServiceA), keel.Construct(testutil.NewServiceB)).
			Container()

		_, err := keel.Resolve[*testutil.ServiceA](c)
		a, b := keel.TypeIDOf[*testutil.ServiceA](), keel.TypeIDOf[*testutil.ServiceB]()
		testutil.AssertCycle(t, err, a, b, a)
	})

	t.Run("stack is released after a failure", func(t *testing.T) {
		t.Parallel()

		c := cyclic(t)
		_, err := c.Get("A")
		require.Error(t, err)

		_, err = c.Get("A")
		testutil.AssertCycle(t, err, "A", "B", "C", "A")
	})

	t.Run("proxy defers one side", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(
				keel.Construct(func(p *pong) *ping { return &ping{pong: p} }, keel.AsSingleton()),
				keel.Construct(func(p func() (*ping, error)) *pong { return &pong{ping: p} },
					keel.WithArgs(keel.ProxyOf(keel.TypeIDOf[*ping]()))),
			).
			Container()

		p, err := keel.Resolve[*ping](c)
		require.NoError(t, err)

		back, err := p.pong.ping()
		require.NoError(t, err)
		assert.Same(t, p, back)
	})
}

func TestContainer_Proxy(t *testing.T) {
	t.Parallel()

	c := testutil.NewRegistryBuilder(t).
		WithModule(testutil.AppModule()).
		With(keel.Proxy("logger.proxy", testutil.LoggerID)).
		Container()

	v, err := c.Get("logger.proxy")
	require.NoError(t, err)
	proxy, ok := v.(keel.ProxyFunc)
	require.True(t, ok)
	assert.False(t, c.Resolved(testutil.LoggerID), "proxy must not resolve its target eagerly")

	logger, err := keel.ProxyAs[testutil.Logger](proxy)()
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, c.Resolved(testutil.LoggerID))

	_, err = keel.ProxyAs[*testutil.Cache](proxy)()
	var mismatch keel.TypeMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestContainer_Arguments(t *testing.T) {
	t.Run("param object", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(keel.Construct(testutil.NewParamService)).
			Container()

		svc, err := keel.Resolve[*testutil.ParamService](c)
		require.NoError(t, err)

		p := svc.Params
		assert.NotNil(t, p.Logger)
		assert.Equal(t, "postgres://localhost/app", p.Database.DSN)
		assert.NotNil(t, p.Cache, "discoverable optional dependency is built")
		assert.Equal(t, "5s", p.Timeout.String())
		assert.Equal(t, 3, p.Retries)
	})

	t.Run("optional without discovery stays nil", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(keel.Construct(testutil.NewParamService)).
			Container(keel.WithZeroConfig(false))

		svc, err := keel.Resolve[*testutil.ParamService](c)
		require.NoError(t, err)
		assert.Nil(t, svc.Params.Cache)
	})

	t.Run("field injection", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(keel.AutowireOf[*testutil.InjectedService]()).
			Container()

		svc, err := keel.Resolve[*testutil.InjectedService](c)
		require.NoError(t, err)

		logger, err := c.Get(testutil.LoggerID)
		require.NoError(t, err)
		assert.Same(t, logger, svc.Logger)
		assert.NotNil(t, svc.Database)
		assert.NotNil(t, svc.Cache)
		assert.Nil(t, svc.Ignored)
		assert.Empty(t, svc.Name)
	})

	t.Run("named arguments", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Callable("diff", func(a, b int) int { return a - b },
				keel.ParamNames("a", "b"),
				keel.WithArgs(keel.Named("b", 1), keel.Named("a", 10)),
			)).
			Container()

		v, err := c.Get("diff")
		require.NoError(t, err)
		assert.Equal(t, 9, v)
	})

	t.Run("definition default", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Callable("sum", testutil.Add,
				keel.ParamNames("a", "b"),
				keel.WithArgs(1),
				keel.Default("b", 41),
			)).
			Container()

		v, err := c.Get("sum")
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("nested definitions", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Callable("sum", testutil.Add,
				keel.WithArgs(keel.Callable("", testutil.Add, keel.WithArgs(1, 2)), 3),
			)).
			Container()

		v, err := c.Get("sum")
		require.NoError(t, err)
		assert.Equal(t, 6, v)
	})

	t.Run("numeric conversion", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Callable("sum", testutil.Add, keel.WithArgs(int64(2), uint8(3)))).
			Container()

		v, err := c.Get("sum")
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Callable("sum", testutil.Add, keel.WithArgs("x", "y"))).
			Container()

		_, err := c.Get("sum")
		var mismatch keel.TypeMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, reflect.TypeFor[int](), mismatch.Expected)
		assert.Contains(t, err.Error(), "parameter #0 (int)")
	})

	t.Run("too many arguments", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(
				keel.Callable("sum", testutil.Add, keel.WithArgs(1, 2, 3)),
				keel.Callable("named", testutil.Add, keel.WithArgs(keel.Named("c", 1))),
			).
			Container()

		_, err := c.Get("sum")
		var tooMany keel.TooManyArgumentsError
		require.True(t, errors.As(err, &tooMany))
		assert.Equal(t, 3, tooMany.Given)
		assert.Equal(t, 2, tooMany.Accepted)

		_, err = c.Get("named")
		require.True(t, errors.As(err, &tooMany))
		assert.Equal(t, []string{"$c"}, tooMany.Unknown)
	})

	t.Run("unresolvable parameter", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewNeedsMissing)).
			Container()

		_, err := keel.Resolve[*testutil.NeedsMissing](c)
		require.Error(t, err)
		assert.ErrorIs(t, err, keel.ErrUnresolvable)

		var ue keel.UnresolvableDependencyError
		require.True(t, errors.As(err, &ue))
		assert.Contains(t, ue.Function, "NewNeedsMissing")
		assert.Contains(t, ue.Param, "testutil.Missing")
		assert.NotEmpty(t, ue.Location)
		assert.Equal(t, []string{keel.TypeIDOf[*testutil.NeedsMissing]()}, ue.Chain)
	})

	t.Run("getter parameter", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		v, err := c.Call(func(g keel.Getter) bool { return g.Has(testutil.LoggerID) })
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})
}

func TestContainer_Failures(t *testing.T) {
	t.Run("constructor error", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).With(keel.Construct(testutil.NewFailing)).Container()

		_, err := keel.Resolve[*testutil.Failing](c)
		assert.ErrorIs(t, err, testutil.ErrConstructor)
	})

	t.Run("constructor panic", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).With(keel.Construct(testutil.NewPanicking)).Container()

		_, err := keel.Resolve[*testutil.Panicking](c)
		var panicErr keel.ConstructorPanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "boom", panicErr.Panic)
		assert.Contains(t, panicErr.Function, "NewPanicking")
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("setup error", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewMailer, keel.WithArgs("smtp"), keel.Setup("Dial"))).
			Container()

		_, err := keel.Resolve[*testutil.Mailer](c)
		assert.ErrorIs(t, err, testutil.ErrNotDialed)
	})

	t.Run("missing setup method", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewMailer, keel.WithArgs("smtp"), keel.Setup("Connect"))).
			Container()

		_, err := keel.Resolve[*testutil.Mailer](c)
		assert.ErrorIs(t, err, keel.ErrMethodMissing)
	})

	t.Run("unexported setup method", func(t *testing.T) {
		t.Parallel()

		_, err := keel.NewRegistry(keel.Construct(testutil.NewMailer, keel.Setup("dial")))
		assert.ErrorIs(t, err, keel.ErrMethodNotPublic)
	})

	t.Run("setup result replaces the instance", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewMailer, keel.WithArgs("a"), keel.Setup("WithHost", "b"))).
			Container()

		mailer, err := keel.Resolve[*testutil.Mailer](c)
		require.NoError(t, err)
		assert.Equal(t, "b", mailer.Host)
		assert.Equal(t, []string{"WithHost"}, mailer.Calls)
	})

	t.Run("factory method errors", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(
				keel.Factory("client.missing", reflect.TypeFor[*testutil.ClientFactory](), keel.FactoryMethod("Build")),
				keel.Factory("client.static", reflect.TypeFor[testutil.ClientFactory](), keel.Static()),
				keel.Factory("client.default", reflect.TypeFor[testutil.ClientFactory](), keel.Static(), keel.FactoryMethod("Default")),
			).
			Container()

		_, err := c.Get("client.missing")
		assert.ErrorIs(t, err, keel.ErrMethodMissing)

		_, err = c.Get("client.static")
		assert.ErrorIs(t, err, keel.ErrMethodNotStatic)

		client := testutil.AssertResolvable[*testutil.Client](t, c, "client.default")
		assert.Equal(t, "default", client.Name)
	})
}

func TestContainer_Call(t *testing.T) {
	t.Run("function", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		v, err := c.Call(func(db *testutil.Database) string { return db.Query("select 1") })
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/app: select 1", v)
	})

	t.Run("extra arguments take precedence", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		v, err := c.Call(testutil.NewDatabase, "sqlite://memory")
		require.NoError(t, err)
		assert.Equal(t, "sqlite://memory", v.(*testutil.Database).DSN)

		v, err = c.Call(testutil.Add, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("several results", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		v, err := c.Call(testutil.Pair)
		require.NoError(t, err)
		assert.Equal(t, []any{"pair", 2}, v)
	})

	t.Run("no results", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		called := false
		v, err := c.Call(func() { called = true })
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.True(t, called)
	})

	t.Run("method", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		v, err := c.Call(keel.Method(testutil.MailerID, "WithHost"), "smtp.other")
		require.NoError(t, err)
		assert.Equal(t, "smtp.other", v.(*testutil.Mailer).Host)

		_, err = c.Call(keel.Method(testutil.MailerID, "Send"))
		assert.ErrorIs(t, err, keel.ErrMethodMissing)

		_, err = c.Call(keel.Method("missing", "Send"))
		assert.ErrorIs(t, err, keel.ErrNotFound)
	})

	t.Run("not callable", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		_, err := c.Call("not a function")
		assert.ErrorIs(t, err, keel.ErrNotCallable)
	})
}

func TestContainer_Remove(t *testing.T) {
	t.Run("before resolution hides zero config", func(t *testing.T) {
		t.Parallel()

		id := keel.TypeIDOf[*testutil.Counter]()
		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewCounter)).
			Container(keel.WithTypes(reflect.TypeFor[*testutil.Counter]()))

		require.True(t, c.Has(id))
		require.NoError(t, c.Remove(id))

		assert.False(t, c.Has(id))
		testutil.AssertNotFound(t, c, id)
		assert.False(t, c.CanDiscover(reflect.TypeFor[*testutil.Counter]()))

		_, err := keel.Resolve[*testutil.Counter](c)
		assert.ErrorIs(t, err, keel.ErrNotFound)
	})

	t.Run("after resolution fails", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		_, err := c.Get(testutil.DSNID)
		require.NoError(t, err)

		err = c.Remove(testutil.DSNID)
		assert.ErrorIs(t, err, keel.ErrAlreadyResolved)
		assert.True(t, c.Has(testutil.DSNID))
	})
}

func TestContainer_ZeroConfig(t *testing.T) {
	t.Run("unregistered struct is autowired", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		id := keel.TypeIDOf[*testutil.InjectedService]()
		assert.False(t, c.Has(id))

		svc, err := keel.Resolve[*testutil.InjectedService](c)
		require.NoError(t, err)
		assert.NotNil(t, svc.Logger)
		assert.True(t, c.Has(id))
	})

	t.Run("registered types resolve by id", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t, keel.WithTypes(reflect.TypeFor[*testutil.Cache]()))

		assert.True(t, c.Has(keel.TypeIDOf[*testutil.Cache]()))
		testutil.AssertResolvable[*testutil.Cache](t, c, keel.TypeIDOf[*testutil.Cache]())
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t, keel.WithZeroConfig(false), keel.WithTypes(reflect.TypeFor[*testutil.Cache]()))

		assert.False(t, c.Has(keel.TypeIDOf[*testutil.Cache]()))
		_, err := keel.Resolve[*testutil.InjectedService](c)
		assert.ErrorIs(t, err, keel.ErrNotFound)
	})

	t.Run("interfaces and literals are not discovered", func(t *testing.T) {
		t.Parallel()
		c := appContainer(t)

		assert.False(t, c.CanDiscover(reflect.TypeFor[testutil.Missing]()))
		assert.False(t, c.CanDiscover(reflect.TypeFor[int]()))
		assert.False(t, c.CanDiscover(reflect.TypeFor[struct{ A int }]()))
	})
}

func TestContainer_Metadata(t *testing.T) {
	t.Run("hint beats auto resolution, bound beats hint", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().
			Func(testutil.NewDatabase, keel.ValueHint("#0", "hinted://db"))

		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(
				keel.Construct(testutil.NewDatabase, keel.ID("db.hinted")),
				keel.Construct(testutil.NewDatabase, keel.ID("db.bound"), keel.WithArgs("bound://db")),
			).
			Container(keel.WithMetadata(annotations))

		hinted := testutil.AssertResolvable[*testutil.Database](t, c, "db.hinted")
		assert.Equal(t, "hinted://db", hinted.DSN)

		bound := testutil.AssertResolvable[*testutil.Database](t, c, "db.bound")
		assert.Equal(t, "bound://db", bound.DSN)
	})

	t.Run("parameter names hint", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().Func(testutil.NewMailer, keel.NamesHint("host"))
		c := testutil.NewRegistryBuilder(t).
			With(keel.Construct(testutil.NewMailer, keel.WithArgs(keel.Named("host", "smtp.named")))).
			Container(keel.WithMetadata(annotations))

		mailer, err := keel.Resolve[*testutil.Mailer](c)
		require.NoError(t, err)
		assert.Equal(t, "smtp.named", mailer.Host)
	})

	t.Run("inject hint", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().
			Func(testutil.NewDatabase, keel.InjectHint("#0", "dsn.replica"))
		c := testutil.NewRegistryBuilder(t).
			WithModule(testutil.AppModule()).
			With(
				keel.Value("dsn.replica", "postgres://replica"),
				keel.Construct(testutil.NewDatabase, keel.ID("db.replica")),
			).
			Container(keel.WithMetadata(annotations))

		db := testutil.AssertResolvable[*testutil.Database](t, c, "db.replica")
		assert.Equal(t, "postgres://replica", db.DSN)
	})

	t.Run("service hint", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().
			Type(reflect.TypeFor[testutil.Notifier](), keel.ServiceHint(keel.TypeIDOf[*testutil.EmailNotifier]()))
		c := appContainer(t,
			keel.WithMetadata(annotations),
			keel.WithTypes(reflect.TypeFor[*testutil.EmailNotifier]()),
		)

		v, err := c.Call(func(n testutil.Notifier) string { return n.Notify("hi") })
		require.NoError(t, err)
		assert.Equal(t, "email: hi", v)
	})

	t.Run("factory hint", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().
			Type(reflect.TypeFor[*testutil.Client](), keel.FactoryHint(reflect.TypeFor[testutil.ClientFactory](), "Default", true))
		c := appContainer(t, keel.WithMetadata(annotations))

		client, err := keel.Resolve[*testutil.Client](c)
		require.NoError(t, err)
		assert.Equal(t, "default", client.Name)
	})

	t.Run("constructor, setup and lifetime hints", func(t *testing.T) {
		t.Parallel()

		annotations := keel.NewAnnotations().
			Type(reflect.TypeFor[*testutil.Cache](), keel.ConstructorHint(testutil.NewCache)).
			Type(reflect.TypeFor[*testutil.Mailer](),
				keel.SetupHint(0, "SetPort", 25),
				keel.LifetimeHint(keel.Singleton),
			)
		c := appContainer(t, keel.WithMetadata(annotations))

		cache, err := keel.Resolve[*testutil.Cache](c)
		require.NoError(t, err)
		assert.Equal(t, 64, cache.Size)

		mailer, err := keel.Resolve[*testutil.Mailer](c)
		require.NoError(t, err)
		assert.Equal(t, 25, mailer.Port)

		again, err := keel.Resolve[*testutil.Mailer](c)
		require.NoError(t, err)
		assert.Same(t, mailer, again)
	})
}

func TestContainer_Logging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	c := appContainer(t, keel.WithLogger(zap.New(core)))

	_, err := c.Get(testutil.LoggerID)
	require.NoError(t, err)
	_, err = c.Get("missing")
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("container created").Len())

	resolved := logs.FilterMessage("resolved").FilterField(zap.String("id", testutil.LoggerID))
	require.Equal(t, 1, resolved.Len())
	fields := resolved.All()[0].ContextMap()
	assert.Equal(t, true, fields["singleton"])
	assert.Equal(t, "Autowire", fields["kind"])
}

func TestGenericHelpers(t *testing.T) {
	t.Parallel()
	c := appContainer(t)

	_, err := keel.GetAs[int](c, testutil.LoggerID)
	var mismatch keel.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Contains(t, err.Error(), `value of "logger"`)

	assert.Equal(t, "postgres://localhost/app", keel.MustGet[string](c, testutil.DSNID))
	assert.Panics(t, func() { keel.MustGet[string](c, "missing") })
}

func TestSynchronized(t *testing.T) {
	t.Parallel()

	c := appContainer(t)
	s := keel.Synchronized(c)
	assert.Same(t, c, s.Unwrap())

	const workers = 16
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Get(testutil.LoggerID)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	for _, v := range results[1:] {
		assert.Same(t, results[0], v)
	}

	cache, err := keel.Resolve[*testutil.Cache](s)
	require.NoError(t, err)
	assert.NotNil(t, cache)

	v, err := s.Call(testutil.Add, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.True(t, s.Has(testutil.LoggerID))
}
