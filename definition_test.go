package keel_test

import (
	"reflect"
	"testing"

	"github.com/junioryono/keel"
	"github.com/junioryono/keel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		kind     keel.Kind
		expected string
		builtin  bool
	}{
		{keel.KindAutowire, "Autowire", true},
		{keel.KindFactory, "Factory", true},
		{keel.KindCallable, "Callable", true},
		{keel.KindValue, "Value", true},
		{keel.KindReference, "Reference", true},
		{keel.KindProxy, "Proxy", true},
		{keel.KindTagged, "TaggedAs", true},
		{keel.Kind(0), "Kind(0)", false},
		{keel.Kind(42), "Kind(42)", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
			assert.Equal(t, tt.builtin, tt.kind.IsBuiltin())
		})
	}
}

func TestAutowire(t *testing.T) {
	t.Run("construct derives type and id", func(t *testing.T) {
		def := keel.Construct(testutil.NewDatabase, keel.AsSingleton())
		require.NoError(t, def.Validate())

		assert.Equal(t, keel.TypeIDOf[*testutil.Database](), def.ID())
		assert.Equal(t, reflect.TypeFor[*testutil.Database](), def.Type())
		assert.Equal(t, keel.Singleton, def.Lifetime())
		_, ok := def.Constructor()
		assert.True(t, ok)
	})

	t.Run("constructor returning only an error", func(t *testing.T) {
		def := keel.Construct(func() error { return nil })
		assert.Error(t, def.Validate())
	})

	t.Run("constructor result must match", func(t *testing.T) {
		def := keel.AutowireOf[*testutil.Cache](keel.Constructor(testutil.NewLogger))
		err := def.Validate()

		var mismatch keel.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "constructor result", mismatch.Context)
	})

	t.Run("field injection needs a struct", func(t *testing.T) {
		assert.NoError(t, keel.AutowireOf[*testutil.InjectedService]().Validate())
		assert.Error(t, keel.AutowireOf[testutil.Logger]().Validate())
		assert.Error(t, keel.AutowireOf[int]().Validate())
	})

	t.Run("setups ordered by priority", func(t *testing.T) {
		def := keel.Construct(testutil.NewMailer,
			keel.Setup("Dial"),
			keel.SetupAt(10, "SetPort", 25),
			keel.Setup("WithHost", "b"),
			keel.SetupAt(10, "SetPort", 26),
		)

		var methods []string
		for _, s := range def.OrderedSetups() {
			methods = append(methods, s.Method)
		}
		assert.Equal(t, []string{"SetPort", "SetPort", "Dial", "WithHost"}, methods)
		assert.Equal(t, keel.Pos(26), def.OrderedSetups()[1].Args)
		assert.Equal(t, "Dial", def.Setups()[0].Method)
	})
}

func TestFactory(t *testing.T) {
	def := keel.FactoryOf[*testutil.ClientFactory]("client")
	require.NoError(t, def.Validate())
	assert.Equal(t, keel.DefaultFactoryMethod, def.Method())
	assert.False(t, def.Static())
	assert.Equal(t, reflect.TypeFor[*testutil.ClientFactory](), def.FactoryType())

	static := keel.FactoryOf[testutil.ClientFactory]("client.default", keel.FactoryMethod("Default"), keel.Static())
	require.NoError(t, static.Validate())
	assert.True(t, static.Static())

	assert.ErrorIs(t, keel.FactoryOf[testutil.ClientFactory]("c", keel.FactoryMethod("create")).Validate(), keel.ErrMethodNotPublic)
	assert.Error(t, keel.Factory("c", nil).Validate())
}

func TestCallable(t *testing.T) {
	assert.NoError(t, keel.Callable("sum", testutil.Add).Validate())
	assert.ErrorIs(t, keel.Callable("nil", nil).Validate(), keel.ErrNotCallable)

	var fn func() int
	assert.ErrorIs(t, keel.Callable("nil func", fn).Validate(), keel.ErrNotCallable)
	assert.ErrorIs(t, keel.Callable("no result", func() {}).Validate(), keel.ErrNotCallable)
}

func TestReferenceAndProxy(t *testing.T) {
	ref := keel.Ref(" logger ")
	assert.Equal(t, "logger", ref.Target())
	assert.Empty(t, ref.ID())
	assert.NoError(t, ref.Validate())
	assert.Equal(t, keel.TypeIDOf[testutil.Logger](), keel.RefOf[testutil.Logger]().Target())

	proxy := keel.ProxyOf("logger")
	assert.Equal(t, keel.KindProxy, proxy.Kind())
	assert.NoError(t, proxy.Validate())

	assert.ErrorIs(t, keel.Proxy("p", "").Validate(), keel.ErrInvalidID)
}

func TestTaggedAs(t *testing.T) {
	def := keel.TaggedAs("all", "handlers")
	require.NoError(t, def.Validate())
	assert.True(t, def.ExcludesSelf())
	assert.False(t, def.IsLazy())
	assert.False(t, def.UsesKeys())
	assert.Equal(t, keel.OptionKey, def.KeyOption())

	configured := keel.Tagged("handlers",
		keel.Lazy(),
		keel.UseKeys(),
		keel.KeyOption("alias"),
		keel.KeyDefaultMethod("Key"),
		keel.CollectionPriorityMethod("Priority"),
		keel.Exclude("a", "b"),
		keel.SelfExclude(false),
	)
	require.NoError(t, configured.Validate())
	assert.True(t, configured.IsLazy())
	assert.True(t, configured.UsesKeys())
	assert.Equal(t, "alias", configured.KeyOption())
	assert.Equal(t, "Key", configured.KeyDefaultMethod())
	assert.Equal(t, "Priority", configured.CollectionPriorityMethod())
	assert.Equal(t, []string{"a", "b"}, configured.Excluded())
	assert.False(t, configured.ExcludesSelf())

	assert.Error(t, keel.TaggedAs("all", " ").Validate())
}

func TestDefinitionOptions(t *testing.T) {
	t.Run("foreign options are rejected", func(t *testing.T) {
		err := keel.Callable("fn", testutil.Add, keel.Static(), keel.Lazy(), keel.Static()).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "options Static, Lazy do not apply to Callable definitions")
	})

	t.Run("custom definitions reject kind options", func(t *testing.T) {
		base := keel.NewBase("custom", keel.Setup("Run"))
		assert.Error(t, base.Validate())
	})

	t.Run("invalid lifetime", func(t *testing.T) {
		err := keel.Value("v", 1, keel.WithLifetime(keel.Lifetime(9))).Validate()
		var lerr keel.LifetimeError
		assert.ErrorAs(t, err, &lerr)
	})

	t.Run("empty tag name", func(t *testing.T) {
		assert.Error(t, keel.Value("v", 1, keel.WithTag("")).Validate())
	})

	t.Run("shared options", func(t *testing.T) {
		def := keel.Callable("sum", testutil.Add,
			keel.WithArgs(1, keel.Named("b", 2), keel.Pos(3, 4)),
			keel.ParamNames("a", "b"),
			keel.Default("b", 5),
			keel.DefaultPriorityMethod("Priority"),
			keel.WithTag("math", keel.Priority(3)),
			keel.AsTransient(),
		)

		assert.Equal(t, []any{1, 3, 4}, def.Args().Positional())
		assert.Equal(t, []any{2}, def.Args().Lookup("b"))
		assert.Equal(t, []string{"a", "b"}, def.ParamNames())
		assert.Equal(t, "Priority", def.PriorityMethod())
		assert.Equal(t, keel.Transient, def.Lifetime())

		v, ok := def.Default("b")
		assert.True(t, ok)
		assert.Equal(t, 5, v)

		tag, ok := keel.HasTag(def, "math")
		require.True(t, ok)
		require.NotNil(t, tag.Priority)
		assert.Equal(t, int64(3), *tag.Priority)

		_, ok = keel.HasTag(def, "other")
		assert.False(t, ok)
	})
}

func TestTag(t *testing.T) {
	tag := keel.NewTag(" handlers ", keel.KeyMethod("Key"), keel.PriorityMethod("Rank"), nil)
	assert.Equal(t, "handlers", tag.Name)

	key, ok := tag.Option(keel.OptionKey)
	require.True(t, ok)
	assert.Equal(t, "self::Key", key)

	method, ok := tag.Option(keel.OptionPriorityMethod)
	require.True(t, ok)
	assert.Equal(t, "Rank", method)

	_, ok = tag.Option("missing")
	assert.False(t, ok)
}

func TestArgs(t *testing.T) {
	args := keel.Args{
		keel.Named("a", 1),
		{Value: "x"},
		keel.Named("b", 2),
		keel.Named("a", 3),
		{Value: "y"},
	}

	assert.Equal(t, []any{"x", "y"}, args.Positional())
	assert.Equal(t, []any{1, 3}, args.Lookup("a"))
	assert.Empty(t, args.Lookup("c"))
	assert.Equal(t, []string{"a", "b"}, args.Names())
}

func TestTypeID(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected string
	}{
		{"nil", nil, ""},
		{"named struct", reflect.TypeFor[testutil.Cache](), "github.com/junioryono/keel/internal/testutil.Cache"},
		{"pointer", reflect.TypeFor[*testutil.Cache](), "*github.com/junioryono/keel/internal/testutil.Cache"},
		{"double pointer", reflect.TypeFor[**testutil.Cache](), "**github.com/junioryono/keel/internal/testutil.Cache"},
		{"interface", reflect.TypeFor[testutil.Logger](), "github.com/junioryono/keel/internal/testutil.Logger"},
		{"builtin", reflect.TypeFor[int](), "int"},
		{"slice", reflect.TypeFor[[]string](), "[]string"},
		{"error", reflect.TypeFor[error](), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, keel.TypeID(tt.typ))
		})
	}
}

func TestTypeRegistry(t *testing.T) {
	reg := keel.NewTypeRegistry(reflect.TypeFor[*testutil.Cache]())
	assert.Equal(t, 1, reg.Len())

	id := reg.RegisterType(reflect.TypeFor[testutil.Config]())
	assert.Equal(t, keel.TypeIDOf[testutil.Config](), id)
	assert.Empty(t, reg.RegisterType(nil))

	got, ok := reg.Lookup(keel.TypeIDOf[*testutil.Cache]())
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*testutil.Cache](), got)

	_, ok = reg.Lookup("unknown")
	assert.False(t, ok)
}

func TestStack(t *testing.T) {
	var s keel.Stack
	require.NoError(t, s.Enter("a"))
	require.NoError(t, s.Enter("b"))

	assert.Equal(t, 2, s.Depth())
	assert.True(t, s.Active("a"))
	assert.Equal(t, []string{"a", "b"}, s.Chain())

	err := s.Enter("a")
	testutil.AssertCycle(t, err, "a", "b", "a")

	s.Leave("a")
	assert.Equal(t, 2, s.Depth(), "leave only pops the top")

	nf := s.NotFound("c")
	assert.ErrorIs(t, nf, keel.ErrNotFound)
	assert.Contains(t, nf.Error(), "a -> b")

	s.Leave("b")
	s.Leave("a")
	assert.Equal(t, 0, s.Depth())
	assert.False(t, s.Active("a"))
}
