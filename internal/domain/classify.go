package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/crowdgen/internal/model"
)

var (
	// ErrUnknownDomain is returned for keys or labels not in the catalog
	ErrUnknownDomain = errors.New("unknown domain")
	// ErrUnknownTier is returned for tiers a domain does not define
	ErrUnknownTier = errors.New("unknown tier")
)

// Neutral is the score at which measured equals baseline
func (m Mode) Neutral() float64 {
	if m == ModeDiff {
		return 0
	}
	return 1
}

// Score compares measured with baseline according to the domain mode
func (d *Domain) Score(measured, baseline float64) (float64, error) {
	if d.Mode == ModeDiff {
		return settle(measured - baseline), nil
	}
	if baseline <= 0 {
		return 0, fmt.Errorf("baseline must be positive, got %v", baseline)
	}
	return settle(measured / baseline), nil
}

// settle drops float noise so 3.3/2.2 compares equal to 1.5
func settle(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// Classify maps a measurement and optional baseline to a tier.
//
// A nil baseline is the unset tier. A score at or below the neutral point
// is the within tier. Above it, the tier with the greatest Min not exceeding
// the score wins; thresholds are inclusive, so a ratio of exactly 1.5 lands
// in a tier whose Min is 1.5. Scores under the lowest Min fall to the lowest
// above tier.
func (d *Domain) Classify(measured float64, baseline *float64) (*Tier, error) {
	if baseline == nil {
		return d.tierOfKind(model.KindUnset)
	}

	score, err := d.Score(measured, *baseline)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", d.Key, err)
	}

	if score <= d.Mode.Neutral() {
		return d.tierOfKind(model.KindWithin)
	}

	above := d.aboveTiers()
	if len(above) == 0 {
		return nil, fmt.Errorf("%w: %s has no above tier", ErrUnknownTier, d.Key)
	}
	chosen := above[0]
	for _, t := range above[1:] {
		if score >= t.Min {
			chosen = t
		}
	}
	return chosen, nil
}

// aboveTiers returns above tiers sorted by ascending Min
func (d *Domain) aboveTiers() []*Tier {
	var out []*Tier
	for i := range d.Tiers {
		if d.Tiers[i].Kind == model.KindAbove {
			out = append(out, &d.Tiers[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min < out[j].Min })
	return out
}

func (d *Domain) tierOfKind(kind model.TierKind) (*Tier, error) {
	for i := range d.Tiers {
		if d.Tiers[i].Kind == kind {
			return &d.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no %s tier", ErrUnknownTier, d.Key, kind)
}

// Interval returns the classification interval of an above tier as
// [lo, hi) where hi is the next tier's Min (or +Inf). The lowest above tier
// starts just after the neutral point, reported as lo = neutral with
// openLo set.
func (d *Domain) Interval(t *Tier) (lo, hi float64, openLo bool) {
	above := d.aboveTiers()
	hi = inf
	for i, a := range above {
		if a.Key != t.Key {
			continue
		}
		if i+1 < len(above) {
			hi = above[i+1].Min
		}
		if i == 0 {
			return d.Mode.Neutral(), hi, true
		}
		return a.Min, hi, false
	}
	return d.Mode.Neutral(), hi, true
}
