package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/junioryono/keel"
	"github.com/junioryono/keel/compiler"
	"github.com/junioryono/keel/internal/testutil"
	"github.com/junioryono/keel/internal/testutil/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedDir = filepath.Join("..", "internal", "testutil", "app")

// normalized strips what differs between two builds of the same value.
func normalized(t *testing.T, v any) any {
	t.Helper()

	switch v := v.(type) {
	case *testutil.Service:
		s := *v
		s.ID = ""
		return s
	case *keel.Collection:
		values := v.Values()
		for i := range values {
			values[i] = normalized(t, values[i])
		}
		return struct {
			Keyed  bool
			Keys   []string
			Values []any
		}{v.Keyed(), v.Keys(), values}
	case *keel.LazyCollection:
		resolved, err := v.Resolve()
		require.NoError(t, err)
		return struct {
			IDs      []string
			Resolved any
		}{v.IDs(), normalized(t, resolved)}
	}
	return v
}

func TestGenerated_MatchesLiveContainer(t *testing.T) {
	live, err := keel.New(appRegistry(t))
	require.NoError(t, err)

	var ids []string
	for id := range appRegistry(t).All() {
		ids = append(ids, id)
	}

	t.Run("same ids", func(t *testing.T) {
		gen := app.NewContainer()
		for _, id := range ids {
			assert.True(t, gen.Has(id), "generated container lacks %q", id)
		}
		assert.False(t, gen.Has(keel.TypeIDOf[*testutil.ClientFactory]()))
		assert.False(t, gen.Has(testutil.AppConfigID))
		testutil.AssertNotFound(t, gen, "missing")
		testutil.AssertNotFound(t, live, "missing")
	})

	t.Run("same values", func(t *testing.T) {
		gen := app.NewContainer()
		for _, id := range ids {
			want, err := live.Get(id)
			require.NoError(t, err, id)
			got, err := gen.Get(id)
			require.NoError(t, err, id)

			assert.IsType(t, want, got, id)
			assert.Equal(t, normalized(t, want), normalized(t, got), id)
		}
	})

	t.Run("singletons are shared", func(t *testing.T) {
		gen := app.NewContainer()
		dbID := keel.TypeIDOf[*testutil.Database]()

		testutil.AssertSameInstance(t, gen, testutil.LoggerID)
		testutil.AssertSameInstance(t, gen, dbID)
		testutil.AssertDistinctInstances(t, gen, keel.TypeIDOf[*testutil.Service]())
		testutil.AssertDistinctInstances(t, gen, testutil.MailerID)

		logger := testutil.AssertResolvable[*testutil.MemoryLogger](t, gen, testutil.LoggerID)
		db := testutil.AssertResolvable[*testutil.Database](t, gen, dbID)
		assert.Same(t, logger, db.Logger)

		svc := testutil.AssertResolvable[*testutil.Service](t, gen, keel.TypeIDOf[*testutil.Service]())
		assert.Same(t, db, svc.Database)

		client := testutil.AssertResolvable[*testutil.Client](t, gen, testutil.ClientID)
		assert.Same(t, logger, client.Logger)
	})

	t.Run("containers are independent", func(t *testing.T) {
		first := testutil.AssertResolvable[*testutil.MemoryLogger](t, app.NewContainer(), testutil.LoggerID)
		second := testutil.AssertResolvable[*testutil.MemoryLogger](t, app.NewContainer(), testutil.LoggerID)
		assert.NotSame(t, first, second)
	})

	t.Run("lazy members resolve through the generated container", func(t *testing.T) {
		gen := app.NewContainer()
		lazy := testutil.AssertResolvable[*keel.LazyCollection](t, gen, testutil.LazyID)

		var names []string
		for _, v := range lazy.All() {
			names = append(names, v.(testutil.Handler).Name())
		}
		require.NoError(t, lazy.Err())
		assert.Equal(t, []string{"high", "mid", "low"}, names)
	})
}

func TestGenerated_UpToDate(t *testing.T) {
	cfg, err := compiler.LoadConfig(filepath.Join(generatedDir, "keel.yaml"))
	require.NoError(t, err)

	res, err := compile(t, cfg, appRegistry(t))
	require.NoError(t, err)

	checked, err := os.ReadFile(filepath.Join(generatedDir, cfg.Output))
	require.NoError(t, err)
	src := string(checked)

	gen := app.NewContainer()
	for _, e := range res.Entries {
		assert.True(t, gen.Has(e.ID), "%q was added; run go generate", e.ID)
		assert.Contains(t, src, "func (c *Container) "+e.Method+"() (v "+e.ReturnType+", err error) {", e.ID)
		for _, dep := range e.Dependencies {
			assert.Contains(t, src, `"`+dep+`"`, "%s depends on %s", e.ID, dep)
		}
	}
	assert.Contains(t, src, "// Container resolves 15 compiled ids.")
	assert.Len(t, res.Entries, 15)
}
