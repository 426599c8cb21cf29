package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crowdgen/internal/cache"
	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
	"github.com/ppiankov/crowdgen/internal/situation"
)

func catalog(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.Builtin()
	require.NoError(t, err)
	return cat
}

func TestRender_EveryDomainAndTier(t *testing.T) {
	tc := cache.NewTemplates(0, time.Minute)
	for _, d := range catalog(t).All() {
		t.Run(d.Key, func(t *testing.T) {
			r, err := New(d, tc)
			require.NoError(t, err)
			b := situation.NewBuilder(d)
			rng := sampler.New(sampler.Derive(11, d.Key))

			for i := range d.Tiers {
				tier := &d.Tiers[i]
				for n := 0; n < 50; n++ {
					rec, err := b.Build(rng, tier)
					require.NoError(t, err)
					res, err := r.Render(rng, rec)
					require.NoError(t, err)

					s := res.Sample
					assert.Equal(t, d.Label, s.Domain)
					assert.Contains(t, s.Input, res.ValueText)
					assert.Contains(t, s.Output, res.ValueText)
					assert.True(t, strings.HasSuffix(s.Output, "."), s.Output)
					assert.Contains(t, s.Input, rec.Clock.Text)
					assert.NotZero(t, res.Record.Sentences)
					assert.Equal(t, rec.Tier, res.Record.Tier)

					if tier.Kind == model.KindUnset {
						assert.Empty(t, res.BaselineText)
						assert.NotEmpty(t, res.UnsetPhrase)
						assert.Contains(t, s.Input, res.UnsetPhrase)
					} else {
						assert.Empty(t, res.UnsetPhrase)
						assert.Contains(t, s.Input, res.BaselineText)
					}
					assert.NotContains(t, s.Input, "  ")
					assert.NotContains(t, s.Output, "{{")
				}
			}
		})
	}
}

func TestRender_SentenceCounts(t *testing.T) {
	d, err := catalog(t).Get("movement")
	require.NoError(t, err)
	r, err := New(d, nil)
	require.NoError(t, err)
	b := situation.NewBuilder(d)
	rng := sampler.New(21)

	counts := map[int]int{}
	n := 3000
	for i := 0; i < n; i++ {
		rec, err := b.Build(rng, &d.Tiers[i%len(d.Tiers)])
		require.NoError(t, err)
		res, err := r.Render(rng, rec)
		require.NoError(t, err)
		counts[res.Record.Sentences]++
	}

	for _, sw := range d.Output.Sentences {
		got := float64(counts[sw.Count]) * 100 / float64(n)
		assert.InDelta(t, sw.Weight, got, 3, "%d sentences", sw.Count)
	}
}

func TestRender_Deterministic(t *testing.T) {
	d, err := catalog(t).Get("heat")
	require.NoError(t, err)
	r, err := New(d, nil)
	require.NoError(t, err)

	run := func() []model.Result {
		rng := sampler.New(8)
		b := situation.NewBuilder(d)
		var out []model.Result
		for i := 0; i < 30; i++ {
			rec, err := b.Build(rng, &d.Tiers[i%len(d.Tiers)])
			require.NoError(t, err)
			res, err := r.Render(rng, rec)
			require.NoError(t, err)
			out = append(out, res)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestNew_SharesTemplateCache(t *testing.T) {
	d, err := catalog(t).Get("crowd")
	require.NoError(t, err)
	tc := cache.NewTemplates(0, time.Minute)

	_, err = New(d, tc)
	require.NoError(t, err)
	n := tc.Len()
	assert.Positive(t, n)

	_, err = New(d, tc)
	require.NoError(t, err)
	assert.Equal(t, n, tc.Len())
}

func TestRender_FixedExceededValue(t *testing.T) {
	d, err := catalog(t).Get("crowd")
	require.NoError(t, err)
	tier, err := d.Tier("exceeded")
	require.NoError(t, err)
	r, err := New(d, nil)
	require.NoError(t, err)
	b := situation.NewBuilder(d)
	rng := sampler.New(71)

	for i := 0; i < 100; i++ {
		rec, err := b.Build(rng, tier)
		require.NoError(t, err)
		rec.Measured = 71
		rec.Bucket = "중규모"
		rec.Baseline, err = situation.Derive(rng, d, tier, &d.Measures[0], 71)
		require.NoError(t, err)
		require.NotNil(t, rec.Baseline)

		base := int(*rec.Baseline)
		require.True(t, base >= 24 && base <= 64, "baseline %d", base)

		res, err := r.Render(rng, rec)
		require.NoError(t, err)
		assert.Equal(t, "71명", res.ValueText)
		assert.Equal(t, fmt.Sprintf("%d명", 71-base), res.DiffText)
		assert.Contains(t, res.Sample.Input, fmt.Sprintf("%d명", base))
		assert.Contains(t, res.Sample.Output, fmt.Sprintf("기준 %d명을 %d명", base, 71-base))
		assert.Contains(t, res.Sample.Output, "71명")
	}
}

func TestNew_BrokenTemplate(t *testing.T) {
	d := &domain.Domain{
		Key: "broken",
		Input: domain.Input{Groups: []domain.TemplateGroup{
			{Name: "plain", Weight: 1, Templates: []string{"{% if value_text %}{{ value_text }}"}},
		}},
	}
	_, err := New(d, nil)
	assert.Error(t, err)
}

func TestTidy(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"지하철역  출입구에서", "지하철역 출입구에서"},
		{" , 대합실", "대합실"},
		{"인원 71명 , 기준 50명", "인원 71명, 기준 50명"},
		{"  앞뒤 공백  ", "앞뒤 공백"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tidy(tt.in))
	}
}
