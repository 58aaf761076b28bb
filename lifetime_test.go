package keel_test

import (
	"encoding/json"
	"testing"

	"github.com/junioryono/keel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifetime(t *testing.T) {
	t.Run("constants", func(t *testing.T) {
		assert.Equal(t, keel.Lifetime(0), keel.Inherit)
		assert.Equal(t, keel.Lifetime(1), keel.Singleton)
		assert.Equal(t, keel.Lifetime(2), keel.Transient)
	})

	t.Run("String", func(t *testing.T) {
		tests := []struct {
			lifetime keel.Lifetime
			expected string
		}{
			{keel.Inherit, "Inherit"},
			{keel.Singleton, "Singleton"},
			{keel.Transient, "Transient"},
			{keel.Lifetime(999), "Unknown(999)"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.lifetime.String())
		}
	})

	t.Run("IsValid", func(t *testing.T) {
		tests := []struct {
			lifetime keel.Lifetime
			valid    bool
		}{
			{keel.Inherit, true},
			{keel.Singleton, true},
			{keel.Transient, true},
			{keel.Lifetime(-1), false},
			{keel.Lifetime(3), false},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.valid, tt.lifetime.IsValid(), "lifetime %d", int(tt.lifetime))
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		assert.True(t, keel.Singleton.Resolve(false))
		assert.False(t, keel.Transient.Resolve(true))
		assert.True(t, keel.Inherit.Resolve(true))
		assert.False(t, keel.Inherit.Resolve(false))
	})
}

func TestLifetime_Text(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, l := range []keel.Lifetime{keel.Inherit, keel.Singleton, keel.Transient} {
			text, err := l.MarshalText()
			require.NoError(t, err)

			var got keel.Lifetime
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, l, got)
		}
	})

	t.Run("lower case and empty", func(t *testing.T) {
		var l keel.Lifetime
		require.NoError(t, l.UnmarshalText([]byte("singleton")))
		assert.Equal(t, keel.Singleton, l)

		require.NoError(t, l.UnmarshalText([]byte("")))
		assert.Equal(t, keel.Inherit, l)
	})

	t.Run("invalid", func(t *testing.T) {
		var l keel.Lifetime
		err := l.UnmarshalText([]byte("scoped"))
		require.Error(t, err)
		assert.Equal(t, "invalid lifetime: scoped", err.Error())

		_, err = keel.Lifetime(7).MarshalText()
		var lerr keel.LifetimeError
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, 7, lerr.Value)
	})
}

func TestLifetime_JSON(t *testing.T) {
	type config struct {
		Lifetime keel.Lifetime `json:"lifetime"`
	}

	data, err := json.Marshal(config{Lifetime: keel.Transient})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lifetime":"Transient"}`, string(data))

	var decoded config
	require.NoError(t, json.Unmarshal([]byte(`{"lifetime":"singleton"}`), &decoded))
	assert.Equal(t, keel.Singleton, decoded.Lifetime)

	assert.Error(t, json.Unmarshal([]byte(`{"lifetime":1}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"lifetime":"forever"}`), &decoded))
}
