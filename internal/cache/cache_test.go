package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/osteele/liquid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("{{ value_text }}")
	assert.Equal(t, a, Key("{{ value_text }}"))
	assert.NotEqual(t, a, Key("{{ baseline_text }}"))
	assert.True(t, strings.HasPrefix(a, "crowdgen:v1:"))

	// parts are delimited
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestTemplates(t *testing.T) {
	c := NewTemplates(0, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	tpl, err := liquid.NewEngine().ParseString("{{ value_text }} 감지")
	require.NoError(t, err)

	key := Key("{{ value_text }} 감지")
	c.Set(key, tpl)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get(key)
	require.True(t, ok)
	out, err := got.RenderString(liquid.Bindings{"value_text": "71명"})
	require.NoError(t, err)
	assert.Equal(t, "71명 감지", out)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestTemplates_Expiration(t *testing.T) {
	c := NewTemplates(10*time.Millisecond, time.Millisecond)
	tpl, err := liquid.NewEngine().ParseString("x")
	require.NoError(t, err)

	c.Set("k", tpl)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
