package score

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
)

// DefaultTolerance is the allowed drift in percentage points
const DefaultTolerance = 3.0

// Scorer compares observed distributions with configured weights and
// generates diagnostic signals
type Scorer struct {
	tolerance float64
}

// NewScorer creates a scorer; a non-positive tolerance uses DefaultTolerance
func NewScorer(tolerance float64) *Scorer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Scorer{tolerance: tolerance}
}

// share is one expected category of a distribution
type share struct {
	key      string
	expected float64 // percent
}

// Calculate scores a validation report against the domain's weights
func (s *Scorer) Calculate(d *domain.Domain, rep model.ValidationReport) model.Score {
	var signals []model.Signal
	maxDev := 0.0

	for _, dim := range []struct {
		typ  model.SignalType
		name string
		dist model.Distribution
		want []share
	}{
		{model.SignalTierDrift, "tier", rep.Tiers, tierShares(d)},
		{model.SignalBucketDrift, "bucket", rep.Buckets, bucketShares(d)},
		{model.SignalSentenceDrift, "sentence", rep.Sentences, sentenceShares(d)},
		{model.SignalClockDrift, "clock", rep.Clock, clockShares(d)},
	} {
		sig, dev := s.drift(dim.typ, dim.name, dim.dist, dim.want)
		signals = append(signals, sig)
		maxDev = math.Max(maxDev, dev)
	}

	if rep.Unparsed > 0 {
		signals = append(signals, countSignal(model.SignalUnparsed, model.SeverityWarning, rep.Unparsed, rep.Total,
			"samples whose values could not be read back"))
	}
	if rep.Mismatch > 0 {
		signals = append(signals, countSignal(model.SignalMismatch, model.SeverityCritical, rep.Mismatch, rep.Total,
			"samples violating a consistency check"))
	}

	return model.Score{
		Converged:    maxDev <= s.tolerance && rep.Unparsed == 0 && rep.Mismatch == 0,
		MaxDeviation: round2(maxDev),
		Tolerance:    s.tolerance,
		Signals:      signals,
	}
}

// drift computes the largest absolute deviation between observed and
// expected shares of one dimension
func (s *Scorer) drift(typ model.SignalType, name string, dist model.Distribution, want []share) (model.Signal, float64) {
	if dist.Total == 0 {
		return model.Signal{
			Type:        typ,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("No %s data available", name),
			Data:        map[string]interface{}{"samples": 0},
		}, 0
	}

	expected := make(map[string]float64, len(want))
	observed := make(map[string]float64, len(want))
	worstKey, worst := "", 0.0
	for _, w := range want {
		got := dist.Percent(w.key)
		expected[w.key] = round2(w.expected)
		observed[w.key] = round2(got)
		if dev := math.Abs(got - w.expected); dev > worst {
			worstKey, worst = w.key, dev
		}
	}

	// categories never configured count fully as drift
	var extra []string
	for k := range dist.Counts {
		if _, ok := expected[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		got := dist.Percent(k)
		observed[k] = round2(got)
		if got > worst {
			worstKey, worst = k, got
		}
	}

	desc := fmt.Sprintf("%s distribution within %.1fpp of weights", name, worst)
	if worstKey != "" && worst > s.tolerance {
		desc = fmt.Sprintf("%s distribution drifts %.1fpp at %q", name, worst, worstKey)
	}

	return model.Signal{
		Type:        typ,
		Severity:    s.severity(worst),
		Description: desc,
		Data: map[string]interface{}{
			"samples":       dist.Total,
			"expected":      expected,
			"observed":      observed,
			"max_deviation": round2(worst),
			"worst":         worstKey,
			"tolerance":     s.tolerance,
			"formula":       "max(|observed% - weight/sum(weights)*100|)",
		},
	}, worst
}

func (s *Scorer) severity(dev float64) model.SignalSeverity {
	switch {
	case dev <= s.tolerance:
		return model.SeverityInfo
	case dev <= 2*s.tolerance:
		return model.SeverityWarning
	default:
		return model.SeverityCritical
	}
}

func countSignal(typ model.SignalType, sev model.SignalSeverity, n, total int, what string) model.Signal {
	ratio := 0.0
	if total > 0 {
		ratio = float64(n) / float64(total)
	}
	return model.Signal{
		Type:        typ,
		Severity:    sev,
		Description: fmt.Sprintf("%d of %d %s", n, total, what),
		Data: map[string]interface{}{
			"count": n,
			"total": total,
			"ratio": ratio,
		},
	}
}

func tierShares(d *domain.Domain) []share {
	sum := 0.0
	for _, t := range d.Tiers {
		sum += t.Weight
	}
	out := make([]share, 0, len(d.Tiers))
	for _, t := range d.Tiers {
		out = append(out, share{key: t.Label, expected: pct(t.Weight, sum)})
	}
	return out
}

// bucketShares weighs each bucket by its measure's share
func bucketShares(d *domain.Domain) []share {
	msum := 0.0
	for _, m := range d.Measures {
		msum += m.Weight
	}
	var out []share
	for _, m := range d.Measures {
		bsum := 0.0
		for _, b := range m.Buckets {
			bsum += b.Weight
		}
		for _, b := range m.Buckets {
			out = append(out, share{
				key:      d.BucketKey(m.Key, b.Name),
				expected: pct(m.Weight, msum) * b.Weight / bsum,
			})
		}
	}
	return out
}

func sentenceShares(d *domain.Domain) []share {
	sum := 0.0
	for _, s := range d.Output.Sentences {
		sum += s.Weight
	}
	out := make([]share, 0, len(d.Output.Sentences))
	for _, s := range d.Output.Sentences {
		out = append(out, share{key: strconv.Itoa(s.Count), expected: pct(s.Weight, sum)})
	}
	return out
}

func clockShares(d *domain.Domain) []share {
	sum := d.Clock.Numeric + d.Clock.Spoken
	return []share{
		{key: model.ClockNumeric, expected: pct(d.Clock.Numeric, sum)},
		{key: model.ClockSpoken, expected: pct(d.Clock.Spoken, sum)},
	}
}

func pct(w, sum float64) float64 {
	if sum == 0 {
		return 0
	}
	return w * 100 / sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
