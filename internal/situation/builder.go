package situation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
)

// ErrInfeasible is returned when no baseline satisfies a tier for a value
var ErrInfeasible = errors.New("no feasible baseline")

// Builder produces situation records for one domain
type Builder struct {
	domain *domain.Domain
}

// NewBuilder creates a builder for d. The domain must already be validated.
func NewBuilder(d *domain.Domain) *Builder {
	return &Builder{domain: d}
}

// Domain returns the domain the builder samples
func (b *Builder) Domain() *domain.Domain {
	return b.domain
}

// Build samples a complete record for tier. The measure and bucket are drawn
// independently of the tier; when the tier cannot be reached from the drawn
// value, the value is redrawn inside the same bucket.
func (b *Builder) Build(rng *rand.Rand, tier *domain.Tier) (model.SituationRecord, error) {
	d := b.domain

	m, err := b.chooseMeasure(rng)
	if err != nil {
		return model.SituationRecord{}, err
	}
	bucket, err := chooseBucket(rng, m)
	if err != nil {
		return model.SituationRecord{}, err
	}

	var (
		value    float64
		baseline *float64
	)
	for attempt := 0; ; attempt++ {
		if attempt == d.Attempts {
			return model.SituationRecord{}, fmt.Errorf("build %s/%s in bucket %s: %w", d.Key, tier.Key, bucket.Name, ErrInfeasible)
		}
		value = drawValue(rng, m, bucket)
		baseline, err = Derive(rng, d, tier, m, value)
		if errors.Is(err, ErrInfeasible) {
			continue
		}
		if err != nil {
			return model.SituationRecord{}, err
		}
		break
	}

	rec := model.SituationRecord{
		Domain:    d.Key,
		Tier:      tier.Key,
		TierLabel: tier.Label,
		Kind:      tier.Kind,
		Measure:   m.Key,
		Bucket:    bucket.Name,
		Measured:  value,
		Baseline:  baseline,
		Decimals:  m.Decimals,
	}

	rec.Clock, err = sampleClock(rng, d.Clock)
	if err != nil {
		return model.SituationRecord{}, fmt.Errorf("sample clock: %w", err)
	}
	if err := b.fillSlots(rng, tier, m, &rec); err != nil {
		return model.SituationRecord{}, err
	}
	return rec, nil
}

func (b *Builder) chooseMeasure(rng *rand.Rand) (*domain.Measure, error) {
	ms := b.domain.Measures
	weights := make([]float64, len(ms))
	for i, m := range ms {
		weights[i] = m.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return nil, fmt.Errorf("choose measure for %s: %w", b.domain.Key, err)
	}
	return &ms[idx], nil
}

func chooseBucket(rng *rand.Rand, m *domain.Measure) (*domain.Bucket, error) {
	weights := make([]float64, len(m.Buckets))
	for i, bk := range m.Buckets {
		weights[i] = bk.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return nil, fmt.Errorf("choose bucket for %s: %w", m.Key, err)
	}
	return &m.Buckets[idx], nil
}

// drawValue draws uniformly over the bucket on the measure's precision grid
func drawValue(rng *rand.Rand, m *domain.Measure, bk *domain.Bucket) float64 {
	s := m.Scale()
	v := sampler.IntRange(rng, int(math.Ceil(bk.Min*s-1e-9)), int(math.Floor(bk.Max*s+1e-9)))
	return float64(v) / s
}

// Derive returns a baseline for value that classifies back to tier, or nil
// for unset tiers. Arithmetic runs on integers scaled to the measure's
// precision so printed values compare exactly. ErrInfeasible means the
// tier cannot be reached from value once the floor is applied.
func Derive(rng *rand.Rand, d *domain.Domain, tier *domain.Tier, m *domain.Measure, value float64) (*float64, error) {
	if tier.Kind == model.KindUnset {
		return nil, nil
	}

	s := m.Scale()
	v := int(math.Round(value * s))
	floor := int(math.Ceil(m.Floor*s - 1e-9))

	var base int
	switch {
	case len(tier.Derive.Ratio) == 2:
		lo, hi := tier.Derive.Ratio[0], tier.Derive.Ratio[1]
		// lo <= v/base < hi
		maxB := int(math.Floor(settle(float64(v) / lo)))
		minB := int(math.Floor(settle(float64(v)/hi))) + 1
		if minB < floor {
			minB = floor
		}
		if minB > maxB {
			return nil, fmt.Errorf("%w: %s ratio [%v, %v) from %v", ErrInfeasible, tier.Key, lo, hi, value)
		}
		base = sampler.IntRange(rng, minB, maxB)

	case len(tier.Derive.Offset) > 0:
		band := offsetBand(tier.Derive.Offset, value)
		lo := int(math.Round(band.Min * s))
		hi := int(math.Round(band.Max * s))
		if tier.Kind == model.KindAbove {
			// keep the baseline at or above the floor
			if room := v - floor; hi > room {
				hi = room
			}
			if lo > hi {
				return nil, fmt.Errorf("%w: %s offset from %v", ErrInfeasible, tier.Key, value)
			}
			base = v - sampler.IntRange(rng, lo, hi)
		} else {
			base = v + sampler.IntRange(rng, lo, hi)
			if base < floor {
				base = floor
			}
		}

	default:
		return nil, fmt.Errorf("tier %s/%s has no derive rule", d.Key, tier.Key)
	}

	baseline := float64(base) / s
	got, err := d.Classify(value, &baseline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	if got.Key != tier.Key {
		return nil, fmt.Errorf("%w: %v against %v classifies as %s, want %s", ErrInfeasible, value, baseline, got.Key, tier.Key)
	}
	return &baseline, nil
}

func offsetBand(bands []domain.OffsetBand, value float64) domain.OffsetBand {
	for _, b := range bands {
		if b.UpTo == 0 || value <= b.UpTo {
			return b
		}
	}
	return bands[len(bands)-1]
}

func settle(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
