package domain

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	cat, err := Builtin()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"crowd", "fall", "fire", "restricted", "intrusion",
		"ppe", "heat", "heatmap", "queue", "movement",
	}, cat.Keys())

	for _, d := range cat.All() {
		assert.NotEmpty(t, d.Label, d.Key)
		assert.NotEmpty(t, d.Tiers, d.Key)
		assert.Equal(t, 200, d.Attempts, d.Key)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	cat, err := Builtin()
	require.NoError(t, err)

	d, err := cat.Get("crowd")
	require.NoError(t, err)
	byLabel, err := cat.ByLabel(d.Label)
	require.NoError(t, err)
	assert.Same(t, d, byLabel)

	_, err = cat.Get("weather")
	assert.ErrorIs(t, err, ErrUnknownDomain)
	_, err = cat.ByLabel("날씨")
	assert.ErrorIs(t, err, ErrUnknownDomain)

	sel, err := cat.Select([]string{"queue", "crowd", "queue"})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "queue", sel[0].Key)
	assert.Equal(t, "crowd", sel[1].Key)

	all, err := cat.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	_, err = cat.Select([]string{"crowd", "weather"})
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestNewCatalog_Duplicates(t *testing.T) {
	a := &Domain{Key: "a", Label: "가"}
	_, err := NewCatalog(a, &Domain{Key: "a", Label: "나"})
	assert.Error(t, err)
	_, err = NewCatalog(a, &Domain{Key: "b", Label: "가"})
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "key: [unclosed"},
		{"unknown mode", "key: x\nlabel: 엑스\nmode: product\n"},
		{"missing key", "label: 엑스\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFS_Empty(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{})
	assert.Error(t, err)
}

func TestBucketKey(t *testing.T) {
	single := &Domain{Measures: []Measure{{Key: "people"}}}
	assert.Equal(t, "small", single.BucketKey("people", "small"))

	multi := &Domain{Measures: []Measure{{Key: "distance"}, {Key: "time"}}}
	assert.Equal(t, "time/small", multi.BucketKey("time", "small"))
}

func TestTierWeights(t *testing.T) {
	d := builtinDomain(t, "crowd")
	w := d.TierWeights()
	require.Len(t, w, 3)
	assert.Equal(t, "exceeded", w[0].Key)
	assert.Equal(t, 60.0, w[0].Weight)
	assert.Equal(t, 10.0, w[2].Weight)
}
