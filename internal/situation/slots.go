package situation

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
)

// fillSlots samples every descriptive slot in declaration order. Slots left
// out by their chance bind as empty strings.
func (b *Builder) fillSlots(rng *rand.Rand, tier *domain.Tier, m *domain.Measure, rec *model.SituationRecord) error {
	rec.Slots = make(map[string]string, len(b.domain.Slots))
	for i := range b.domain.Slots {
		s := &b.domain.Slots[i]
		if s.Chance != nil && !sampler.Chance(rng, *s.Chance) {
			rec.Slots[s.Name] = ""
			continue
		}
		v, err := b.slotValue(rng, s, tier, m, rec)
		if err != nil {
			return fmt.Errorf("sample slot %s/%s: %w", b.domain.Key, s.Name, err)
		}
		rec.Slots[s.Name] = v
	}
	return nil
}

func (b *Builder) slotValue(rng *rand.Rand, s *domain.Slot, tier *domain.Tier, m *domain.Measure, rec *model.SituationRecord) (string, error) {
	switch {
	case len(s.Join) > 0:
		parts := make([]string, 0, len(s.Join))
		for _, name := range s.Join {
			if v := rec.Slots[name]; v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, s.Separator()), nil

	case len(s.Offset) > 0:
		r, ok := s.Offset[tier.Key]
		if !ok {
			return "", nil
		}
		sc := m.Scale()
		off := sampler.IntRange(rng, int(math.Round(r.Min*sc)), int(math.Round(r.Max*sc)))
		text := m.Text(m.Quantize(rec.Measured + float64(off)/sc))
		rec.Derived = append(rec.Derived, text)
		return text, nil

	case len(s.Tiers) > 0:
		opts, ok := s.Tiers[tier.Key]
		if !ok {
			return "", nil
		}
		return pickOption(rng, opts)

	case len(s.Map) > 0:
		if opts, ok := s.Map[rec.Slots[s.From]]; ok && (len(s.Options) == 0 || sampler.Chance(rng, s.Prefer)) {
			return pickOption(rng, opts)
		}
		if len(s.Options) == 0 {
			return "", nil
		}
		return pickOption(rng, s.Options)

	case len(s.Rules) > 0:
		src := rec.Slots[s.From]
		for _, r := range s.Rules {
			for _, kw := range r.Keywords {
				if strings.Contains(src, kw) {
					return pickOption(rng, r.Options)
				}
			}
		}
		if len(s.Options) == 0 {
			return "", nil
		}
		return pickOption(rng, s.Options)

	case len(s.Groups) > 0:
		return pickGroup(rng, s.Groups)

	default:
		return pickOption(rng, s.Options)
	}
}

func pickOption(rng *rand.Rand, opts []domain.Option) (string, error) {
	weights := make([]float64, len(opts))
	for i, o := range opts {
		weights[i] = o.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return "", err
	}
	return opts[idx].Value, nil
}

func pickGroup(rng *rand.Rand, groups []domain.Group) (string, error) {
	weights := make([]float64, len(groups))
	for i, g := range groups {
		weights[i] = g.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return "", err
	}
	g := groups[idx]

	var n string
	if g.Decimals == 0 {
		n = strconv.Itoa(sampler.IntRange(rng, int(g.Min), int(g.Max)))
	} else {
		sc := math.Pow(10, float64(g.Decimals))
		v := sampler.IntRange(rng, int(math.Round(g.Min*sc)), int(math.Round(g.Max*sc)))
		n = domain.FormatNumber(float64(v)/sc, g.Decimals)
	}

	if len(g.Nouns) == 0 {
		return n + g.Counter, nil
	}
	noun, err := sampler.Pick(rng, g.Nouns)
	if err != nil {
		return "", err
	}
	return noun + " " + n + g.Counter, nil
}
