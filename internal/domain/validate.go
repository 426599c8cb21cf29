package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/crowdgen/internal/model"
)

var inf = math.Inf(1)

// reserved binding names the renderer provides
var reserved = map[string]bool{
	"time": true, "value": true, "value_text": true, "unit": true,
	"measure": true, "bucket": true, "baseline": true, "baseline_text": true,
	"baseline_label": true, "baseline_clause": true, "unset_phrase": true,
	"diff": true, "diff_text": true, "tier": true, "domain": true,
}

// normalize fills defaults in place
func (d *Domain) normalize() {
	if d.Mode == "" {
		d.Mode = ModeRatio
	}
	if d.Attempts <= 0 {
		d.Attempts = 200
	}
	for i := range d.Measures {
		m := &d.Measures[i]
		if m.Format == "" {
			m.Format = FormatPlain
		}
		if m.Weight == 0 {
			m.Weight = 1
		}
		if m.Floor == 0 {
			m.Floor = 1 / m.Scale()
			if m.Decimals == 0 {
				m.Floor = 1
			}
		}
		if m.Key == "" {
			m.Key = m.Name
		}
	}
	if len(d.Clock.Periods) == 0 {
		d.Clock.Periods = []Period{{Name: "종일", From: 0, To: 23, Weight: 1}}
	}
	if d.Clock.Numeric == 0 && d.Clock.Spoken == 0 {
		d.Clock.Numeric, d.Clock.Spoken = 50, 50
	}
	if len(d.Clock.Labels) == 0 {
		d.Clock.Labels = DefaultHourLabels()
	}
	for i := range d.Slots {
		s := &d.Slots[i]
		if s.Prefer == 0 {
			s.Prefer = 1
		}
		for j := range s.Groups {
			if s.Groups[j].Weight == 0 {
				s.Groups[j].Weight = 1
			}
		}
	}
	for i := range d.Input.Groups {
		if d.Input.Groups[i].Weight == 0 {
			d.Input.Groups[i].Weight = 1
		}
	}
	for i := range d.Input.UnsetGroups {
		if d.Input.UnsetGroups[i].Weight == 0 {
			d.Input.UnsetGroups[i].Weight = 1
		}
	}
}

// DefaultHourLabels returns the spoken prefixes used when a domain sets none
func DefaultHourLabels() []HourLabel {
	return []HourLabel{
		{From: 0, To: 0, Label: "자정"},
		{From: 1, To: 5, Label: "새벽"},
		{From: 6, To: 11, Label: "오전"},
		{From: 12, To: 12, Label: "정오"},
		{From: 13, To: 17, Label: "오후"},
		{From: 18, To: 21, Label: "저녁"},
		{From: 22, To: 23, Label: "밤"},
	}
}

// Validate checks the domain configuration and returns every problem found
func (d *Domain) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: "+format, append([]interface{}{d.Key}, args...)...))
	}

	if d.Key == "" {
		add("missing key")
	}
	if d.Label == "" {
		add("missing label")
	}
	if d.Mode != ModeRatio && d.Mode != ModeDiff {
		add("unknown mode %q", d.Mode)
	}

	d.validateMeasures(add)
	d.validateTiers(add)
	d.validateClock(add)
	d.validateSlots(add)
	d.validateInput(add)
	d.validateOutput(add)

	return errors.Join(errs...)
}

func (d *Domain) validateMeasures(add func(string, ...interface{})) {
	if len(d.Measures) == 0 {
		add("no measures")
	}
	for _, m := range d.Measures {
		if m.Unit == "" {
			add("measure %s has no unit", m.Key)
		}
		if m.Weight < 0 {
			add("measure %s has negative weight", m.Key)
		}
		if m.Decimals < 0 || m.Decimals > 3 {
			add("measure %s decimals out of range: %d", m.Key, m.Decimals)
		}
		if m.Format != FormatPlain && m.Format != FormatHM {
			add("measure %s has unknown format %q", m.Key, m.Format)
		}
		if m.Format == FormatHM && m.Decimals != 0 {
			add("measure %s: hm format needs whole minutes", m.Key)
		}
		if len(m.Buckets) == 0 {
			add("measure %s has no buckets", m.Key)
		}
		for _, b := range m.Buckets {
			if b.Weight <= 0 {
				add("bucket %s/%s weight must be positive", m.Key, b.Name)
			}
			if b.Min > b.Max {
				add("bucket %s/%s min %v above max %v", m.Key, b.Name, b.Min, b.Max)
			}
			if b.Min <= 0 {
				add("bucket %s/%s must start above zero", m.Key, b.Name)
			}
		}
	}
}

func (d *Domain) validateTiers(add func(string, ...interface{})) {
	if len(d.Tiers) == 0 {
		add("no tiers")
		return
	}

	seen := map[string]bool{}
	kinds := map[model.TierKind]int{}
	mins := map[float64]string{}
	for _, t := range d.Tiers {
		if t.Key == "" || t.Label == "" {
			add("tier needs key and label")
		}
		if seen[t.Key] {
			add("duplicate tier %s", t.Key)
		}
		seen[t.Key] = true
		if t.Weight <= 0 {
			add("tier %s weight must be positive", t.Key)
		}
		kinds[t.Kind]++

		switch t.Kind {
		case model.KindAbove:
			if other, dup := mins[t.Min]; dup {
				add("tiers %s and %s share min %v", other, t.Key, t.Min)
			}
			mins[t.Min] = t.Key
		case model.KindWithin, model.KindUnset:
		default:
			add("tier %s has unknown kind %q", t.Key, t.Kind)
		}
	}
	if kinds[model.KindAbove] == 0 {
		add("no above tier")
	}
	if kinds[model.KindWithin] > 1 || kinds[model.KindUnset] > 1 {
		add("at most one within and one unset tier allowed")
	}

	for i := range d.Tiers {
		d.validateDerive(&d.Tiers[i], add)
	}
}

// validateDerive proves the derive band sits inside the tier's
// classification interval, so every derived baseline classifies back
func (d *Domain) validateDerive(t *Tier, add func(string, ...interface{})) {
	dv := t.Derive
	hasRatio, hasOffset := len(dv.Ratio) > 0, len(dv.Offset) > 0

	if t.Kind == model.KindUnset {
		if hasRatio || hasOffset {
			add("unset tier %s must not derive a baseline", t.Key)
		}
		return
	}
	if hasRatio == hasOffset {
		add("tier %s needs exactly one of ratio or offset", t.Key)
		return
	}

	if hasRatio {
		if d.Mode != ModeRatio {
			add("tier %s: ratio bands need ratio mode", t.Key)
			return
		}
		if len(dv.Ratio) != 2 || dv.Ratio[0] <= 0 || dv.Ratio[0] >= dv.Ratio[1] {
			add("tier %s ratio band must be [lo, hi) with 0 < lo < hi", t.Key)
			return
		}
		lo, hi := dv.Ratio[0], dv.Ratio[1]
		if t.Kind == model.KindWithin {
			if hi > 1 {
				add("within tier %s ratio band reaches above 1", t.Key)
			}
			return
		}
		clo, chi, open := d.Interval(t)
		if lo < clo || (open && lo == clo) || hi > chi {
			add("tier %s ratio band [%v, %v) outside its class [%v, %v)", t.Key, lo, hi, clo, chi)
		}
		return
	}

	for i, band := range dv.Offset {
		if band.Min > band.Max {
			add("tier %s offset band %d min above max", t.Key, i)
		}
		if band.Min < 0 {
			add("tier %s offset band %d is negative", t.Key, i)
		}
		if i > 0 && band.UpTo != 0 && band.UpTo <= dv.Offset[i-1].UpTo {
			add("tier %s offset bands must ascend", t.Key)
		}
	}

	if t.Kind == model.KindWithin {
		return
	}

	// above tiers with offsets: the offset is the diff itself in diff mode;
	// in ratio mode any positive offset is only safe for a single above tier
	if d.Mode == ModeRatio {
		if len(d.aboveTiers()) > 1 {
			add("tier %s: offsets in ratio mode need a single above tier", t.Key)
		}
		for i, band := range dv.Offset {
			if band.Min <= 0 {
				add("tier %s offset band %d must start above zero", t.Key, i)
			}
		}
		return
	}
	clo, chi, open := d.Interval(t)
	for i, band := range dv.Offset {
		if band.Min < clo || (open && band.Min == clo) || band.Max >= chi {
			add("tier %s offset band %d [%v, %v] outside its class [%v, %v)", t.Key, i, band.Min, band.Max, clo, chi)
		}
	}
}

func (d *Domain) validateClock(add func(string, ...interface{})) {
	for _, p := range d.Clock.Periods {
		if p.From < 0 || p.To > 23 || p.From > p.To {
			add("clock period %s has invalid hours %d-%d", p.Name, p.From, p.To)
		}
		if p.Weight <= 0 {
			add("clock period %s weight must be positive", p.Name)
		}
	}
	if d.Clock.Numeric < 0 || d.Clock.Spoken < 0 {
		add("clock format weights must not be negative")
	}
	for h := 0; h < 24; h++ {
		if labelFor(d.Clock.Labels, h) == "" {
			add("clock has no spoken label for hour %d", h)
			break
		}
	}
}

func labelFor(labels []HourLabel, hour int) string {
	for _, l := range labels {
		if hour >= l.From && hour <= l.To {
			return l.Label
		}
	}
	return ""
}

// SpokenLabel returns the spoken prefix for an hour
func (c Clock) SpokenLabel(hour int) string {
	return labelFor(c.Labels, hour)
}

func (d *Domain) validateSlots(add func(string, ...interface{})) {
	known := map[string]bool{}
	for _, s := range d.Slots {
		if s.Name == "" {
			add("slot without name")
			continue
		}
		if reserved[s.Name] {
			add("slot %s shadows a built-in binding", s.Name)
		}
		if known[s.Name] {
			add("duplicate slot %s", s.Name)
		}
		if s.Chance != nil && (*s.Chance < 0 || *s.Chance > 1) {
			add("slot %s chance must be within [0, 1]", s.Name)
		}
		if s.From != "" && !known[s.From] {
			add("slot %s depends on %s which is not declared before it", s.Name, s.From)
		}
		for _, j := range s.Join {
			if !known[j] {
				add("slot %s joins %s which is not declared before it", s.Name, j)
			}
		}
		for key := range s.Tiers {
			if _, err := d.Tier(key); err != nil {
				add("slot %s: %v", s.Name, err)
			}
		}
		for key, r := range s.Offset {
			if _, err := d.Tier(key); err != nil {
				add("slot %s: %v", s.Name, err)
			}
			if r.Min > r.Max {
				add("slot %s offset for %s has min above max", s.Name, key)
			}
		}
		for _, g := range s.Groups {
			if g.Weight <= 0 || g.Min < 0 || g.Min > g.Max || g.Decimals < 0 || g.Decimals > 3 {
				add("slot %s group %s is invalid", s.Name, g.Name)
			}
		}
		if (len(s.Map) > 0 || len(s.Rules) > 0) && s.From == "" {
			add("slot %s uses map or rules without from", s.Name)
		}
		if len(s.Join) == 0 && len(s.Offset) == 0 && len(s.Tiers) == 0 && len(s.Map) == 0 &&
			len(s.Rules) == 0 && len(s.Groups) == 0 && len(s.Options) == 0 {
			add("slot %s has no source", s.Name)
		}
		for key, opts := range s.Map {
			if len(opts) == 0 {
				add("slot %s has an empty map entry for %s", s.Name, key)
			}
		}
		known[s.Name] = true
	}
}

func (d *Domain) validateInput(add func(string, ...interface{})) {
	in := d.Input
	if len(in.Groups) == 0 {
		add("input has no template groups")
	}
	if len(in.BaselineLabels) == 0 {
		add("input has no baseline labels")
	}
	if d.hasKind(model.KindUnset) && len(in.UnsetPhrases) == 0 {
		add("unset tier needs unset phrases")
	}

	for _, g := range in.Groups {
		if len(g.Templates) == 0 {
			add("input group %s is empty", g.Name)
		}
		for _, tpl := range g.Templates {
			if !strings.Contains(tpl, "value_text") {
				add("input template lacks value_text: %s", tpl)
			}
			if !strings.Contains(tpl, "time") {
				add("input template lacks time: %s", tpl)
			}
			if len(in.UnsetGroups) == 0 && !strings.Contains(tpl, "baseline_clause") {
				add("shared input template lacks baseline_clause: %s", tpl)
			}
			if len(in.UnsetGroups) > 0 && !strings.Contains(tpl, "baseline_text") && !strings.Contains(tpl, "baseline_clause") {
				add("input template lacks the baseline: %s", tpl)
			}
		}
	}
	for _, g := range in.UnsetGroups {
		for _, tpl := range g.Templates {
			if !strings.Contains(tpl, "value_text") {
				add("unset template lacks value_text: %s", tpl)
			}
			if !strings.Contains(tpl, "time") {
				add("unset template lacks time: %s", tpl)
			}
			if !strings.Contains(tpl, "unset_phrase") && !strings.Contains(tpl, "baseline_clause") {
				add("unset template lacks unset_phrase: %s", tpl)
			}
			if strings.Contains(tpl, "baseline_text") {
				add("unset template references baseline_text: %s", tpl)
			}
		}
	}
}

func (d *Domain) validateOutput(add func(string, ...interface{})) {
	out := d.Output
	if len(out.Sentences) == 0 {
		add("output has no sentence distribution")
	}
	maxCount := 0
	for _, s := range out.Sentences {
		if s.Count < 2 || s.Count > 4 {
			add("sentence count %d outside 2..4", s.Count)
		}
		if s.Weight <= 0 {
			add("sentence count %d weight must be positive", s.Count)
		}
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	for _, t := range d.Tiers {
		p, ok := out.Tiers[t.Key]
		if !ok {
			add("output has no pools for tier %s", t.Key)
			continue
		}
		if len(p.Analysis) == 0 || len(p.Action) == 0 {
			add("tier %s needs analysis and action pools", t.Key)
		}
		if maxCount >= 3 && len(p.Rationale) == 0 {
			add("tier %s needs a rationale pool", t.Key)
		}
		if maxCount >= 4 && len(p.Followup) == 0 {
			add("tier %s needs a followup pool", t.Key)
		}
		if t.Kind == model.KindUnset {
			for _, tpl := range append(append([]string{}, p.Analysis...), p.Rationale...) {
				if strings.Contains(tpl, "baseline_text") || strings.Contains(tpl, "diff_text") {
					add("unset tier %s references a baseline: %s", t.Key, tpl)
				}
			}
		}
	}
	for key := range out.Tiers {
		if _, err := d.Tier(key); err != nil {
			add("output: %v", err)
		}
	}
}

func (d *Domain) hasKind(kind model.TierKind) bool {
	for _, t := range d.Tiers {
		if t.Kind == kind {
			return true
		}
	}
	return false
}
