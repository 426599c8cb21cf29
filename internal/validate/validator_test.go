package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crowdgen/internal/cache"
	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/render"
	"github.com/ppiankov/crowdgen/internal/sampler"
	"github.com/ppiankov/crowdgen/internal/situation"
)

// generate renders n samples of d, cycling through its tiers
func generate(t *testing.T, d *domain.Domain, n int) []model.Result {
	t.Helper()
	rng := sampler.New(sampler.Derive(42, d.Key))
	builder := situation.NewBuilder(d)
	renderer, err := render.New(d, cache.NewTemplates(0, time.Minute))
	require.NoError(t, err)

	out := make([]model.Result, 0, n)
	for i := 0; i < n; i++ {
		tier := &d.Tiers[i%len(d.Tiers)]
		rec, err := builder.Build(rng, tier)
		require.NoError(t, err, "build %s/%s", d.Key, tier.Key)
		res, err := renderer.Render(rng, rec)
		require.NoError(t, err, "render %s/%s", d.Key, tier.Key)
		out = append(out, res)
	}
	return out
}

func samples(results []model.Result) []model.Sample {
	out := make([]model.Sample, len(results))
	for i, r := range results {
		out[i] = r.Sample
	}
	return out
}

func builtin(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.Builtin()
	require.NoError(t, err)
	return cat
}

func TestValidate_GeneratedCorpus(t *testing.T) {
	for _, d := range builtin(t).All() {
		t.Run(d.Key, func(t *testing.T) {
			results := generate(t, d, 300)

			rep := NewValidator(d, 5).Validate(results).Validation
			assert.Equal(t, 300, rep.Total)
			assert.Zero(t, rep.Mismatch, "issues: %+v", rep.Issues)
			assert.Zero(t, rep.Unparsed)
			assert.Equal(t, 300, rep.Tiers.Total)
			assert.Equal(t, 300, rep.Clock.Total)
		})
	}
}

func TestAudit_GeneratedCorpus(t *testing.T) {
	for _, d := range builtin(t).All() {
		t.Run(d.Key, func(t *testing.T) {
			results := generate(t, d, 300)
			v := NewValidator(d, 5)

			fromRecords := v.Validate(results).Validation
			fromText := v.Audit(samples(results)).Validation

			assert.Zero(t, fromText.Unparsed, "issues: %+v", fromText.Issues)
			assert.Zero(t, fromText.Mismatch, "issues: %+v", fromText.Issues)
			assert.Equal(t, fromRecords.Tiers.Counts, fromText.Tiers.Counts)
			assert.Equal(t, fromRecords.Buckets.Counts, fromText.Buckets.Counts)
			assert.Equal(t, fromRecords.Baseline.Counts, fromText.Baseline.Counts)
			assert.Equal(t, fromRecords.Clock.Counts, fromText.Clock.Counts)
		})
	}
}

func TestValidate_Tampered(t *testing.T) {
	d, err := builtin(t).Get("crowd")
	require.NoError(t, err)
	results := generate(t, d, 3)

	tests := []struct {
		name   string
		tamper func(r *model.Result)
		want   string
	}{
		{
			name: "value removed from output",
			tamper: func(r *model.Result) {
				r.Sample.Output = strings.ReplaceAll(r.Sample.Output, r.ValueText, "")
			},
			want: "output lacks value",
		},
		{
			name:   "wrong domain label",
			tamper: func(r *model.Result) { r.Sample.Domain = "화재감지" },
			want:   "domain label",
		},
		{
			name:   "missing period",
			tamper: func(r *model.Result) { r.Sample.Output = strings.TrimSuffix(r.Sample.Output, ".") },
			want:   "period",
		},
		{
			name: "foreign number in output",
			tamper: func(r *model.Result) {
				r.Sample.Output = strings.TrimSuffix(r.Sample.Output, ".") + " 9999명."
			},
			want: "not in the record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := results[0]
			tt.tamper(&res)

			rep := NewValidator(d, 5).Validate([]model.Result{res}).Validation
			assert.Equal(t, 1, rep.Mismatch)
			require.Len(t, rep.Issues, 1)
			assert.Equal(t, issueMismatch, rep.Issues[0].Kind)
			assert.Contains(t, rep.Issues[0].Detail, tt.want)
		})
	}
}

func TestValidate_TierMismatch(t *testing.T) {
	d, err := builtin(t).Get("crowd")
	require.NoError(t, err)

	// the first generated sample belongs to the first tier
	res := generate(t, d, 1)[0]
	res.Record.Tier = d.Tiers[len(d.Tiers)-1].Key

	rep := NewValidator(d, 5).Validate([]model.Result{res}).Validation
	assert.Equal(t, 1, rep.Mismatch)
}

func TestAudit_Rows(t *testing.T) {
	d, err := builtin(t).Get("crowd")
	require.NoError(t, err)

	tests := []struct {
		name         string
		row          model.Sample
		wantUnparsed int
		wantMismatch int
	}{
		{
			name:         "no numbers",
			row:          model.Sample{Input: "특이사항 없음", Output: "상황을 확인하십시오.", Domain: d.Label},
			wantUnparsed: 1,
		},
		{
			name:         "clock only",
			row:          model.Sample{Input: "14:05 현재 관찰", Output: "상황을 확인하십시오.", Domain: d.Label},
			wantUnparsed: 1,
		},
		{
			name:         "other domain",
			row:          model.Sample{Input: "14:05 현재 71명", Output: "확인하십시오.", Domain: "낙상감지"},
			wantMismatch: 1,
		},
		{
			name:         "no final period",
			row:          model.Sample{Input: "14:05 현재 71명", Output: "확인하십시오", Domain: d.Label},
			wantMismatch: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := NewValidator(d, 5).Audit([]model.Sample{tt.row}).Validation
			assert.Equal(t, 1, rep.Total)
			assert.Equal(t, tt.wantUnparsed, rep.Unparsed)
			assert.Equal(t, tt.wantMismatch, rep.Mismatch)
		})
	}
}

func TestAudit_ValueMissingFromOutput(t *testing.T) {
	d, err := builtin(t).Get("fire")
	require.NoError(t, err)

	res := generate(t, d, 1)[0]
	row := res.Sample
	row.Output = strings.ReplaceAll(row.Output, res.ValueText, "")

	rep := NewValidator(d, 5).Audit([]model.Sample{row}).Validation
	assert.Equal(t, 1, rep.Mismatch)
	assert.Zero(t, rep.Tiers.Total)
}

func TestValidator_IssueLimit(t *testing.T) {
	d, err := builtin(t).Get("crowd")
	require.NoError(t, err)

	rows := []model.Sample{
		{Input: "없음", Output: "확인.", Domain: d.Label},
		{Input: "없음", Output: "확인.", Domain: d.Label},
		{Input: "없음", Output: "확인.", Domain: d.Label},
	}

	rep := NewValidator(d, 1).Audit(rows).Validation
	assert.Equal(t, 3, rep.Unparsed)
	assert.Len(t, rep.Issues, 1)
	assert.Equal(t, 2, rep.Dropped)

	rep = NewValidator(d, -1).Audit(rows).Validation
	assert.Empty(t, rep.Issues)
	assert.Equal(t, 3, rep.Dropped)
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"하나입니다.", 1},
		{"하나입니다. 둘입니다.", 2},
		{"1.5배입니다. 둘입니다. 셋입니다.", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countSentences(tt.in), tt.in)
	}
}
