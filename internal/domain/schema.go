package domain

import (
	"fmt"
	"math"

	"github.com/ppiankov/crowdgen/internal/model"
	"gopkg.in/yaml.v3"
)

// Mode selects how a measurement is compared with its baseline
type Mode string

const (
	ModeRatio Mode = "ratio" // measured / baseline
	ModeDiff  Mode = "diff"  // measured - baseline
)

// Measure formats
const (
	FormatPlain = "plain" // "71명", "2.5m"
	FormatHM    = "hm"    // minutes as "1시간 5분"
)

// Domain is the declarative configuration of one monitoring domain
type Domain struct {
	Key      string    `yaml:"key"`
	Label    string    `yaml:"label"`
	Mode     Mode      `yaml:"mode"`
	Attempts int       `yaml:"attempts"` // measurement resamples per record
	Measures []Measure `yaml:"measures"`
	Tiers    []Tier    `yaml:"tiers"`
	Clock    Clock     `yaml:"clock"`
	Slots    []Slot    `yaml:"slots"`
	Input    Input     `yaml:"input"`
	Output   Output    `yaml:"output"`
}

// Measure is one measured quantity with weighted magnitude buckets
type Measure struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	Unit     string   `yaml:"unit"`
	Weight   float64  `yaml:"weight"`
	Decimals int      `yaml:"decimals"`
	Format   string   `yaml:"format"`
	Floor    float64  `yaml:"floor"` // smallest meaningful baseline
	Buckets  []Bucket `yaml:"buckets"`
}

// Scale is the integer scale for the measure's precision
func (m Measure) Scale() float64 {
	return math.Pow(10, float64(m.Decimals))
}

// Bucket is a weighted inclusive range of measured values
type Bucket struct {
	Name   string  `yaml:"name"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Weight float64 `yaml:"weight"`
}

// Contains reports whether v falls inside the bucket
func (b Bucket) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Tier is one severity tier
type Tier struct {
	Key    string         `yaml:"key"`
	Label  string         `yaml:"label"`
	Weight float64        `yaml:"weight"`
	Kind   model.TierKind `yaml:"kind"`
	Min    float64        `yaml:"min"` // inclusive lower threshold for above tiers
	Derive Derive         `yaml:"derive"`
}

// Derive describes how a baseline is produced for a tier.
// Ratio is a [lo, hi) band on measured/baseline. Offset bands move the
// baseline away from the measured value: below it for above tiers, above it
// for within tiers. The first band whose UpTo covers the value applies.
type Derive struct {
	Ratio  []float64    `yaml:"ratio,flow"`
	Offset []OffsetBand `yaml:"offset"`
}

// OffsetBand is an offset range applying to values up to UpTo (0 = any)
type OffsetBand struct {
	UpTo float64 `yaml:"up_to"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Clock configures time-of-observation expressions
type Clock struct {
	Periods    []Period    `yaml:"periods"`
	Numeric    float64     `yaml:"numeric"` // weight of HH:MM
	Spoken     float64     `yaml:"spoken"`  // weight of spoken Korean form
	PadMinutes bool        `yaml:"pad_minutes"`
	Labels     []HourLabel `yaml:"labels"`
}

// Period is a weighted window of hours, both ends inclusive
type Period struct {
	Name   string  `yaml:"name"`
	From   int     `yaml:"from"`
	To     int     `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

// HourLabel prefixes spoken times within an hour range
type HourLabel struct {
	From  int    `yaml:"from"`
	To    int    `yaml:"to"`
	Label string `yaml:"label"`
}

// Slot is a descriptive attribute sampled for every record. Exactly one
// source is used, checked in this order: Join, Offset, Tiers, Map, Rules,
// Groups, Options.
type Slot struct {
	Name   string              `yaml:"name"`
	Chance *float64            `yaml:"chance"` // inclusion probability, nil = always
	From   string              `yaml:"from"`   // earlier slot consulted by Map and Rules
	Map    map[string][]Option `yaml:"map"`
	Prefer float64             `yaml:"prefer"` // probability of using Map when From has an entry
	Rules  []Rule              `yaml:"rules"`
	Tiers  map[string][]Option `yaml:"tiers"`
	Groups []Group             `yaml:"groups"`
	Join   []string            `yaml:"join"`
	Sep    *string             `yaml:"sep"`
	Offset map[string]Range    `yaml:"offset"` // tier key -> offset added to the measured value

	Options []Option `yaml:"options"`
}

// Separator returns the join separator
func (s Slot) Separator() string {
	if s.Sep == nil {
		return " "
	}
	return *s.Sep
}

// Option is a weighted vocabulary entry. A bare scalar has weight 1.
type Option struct {
	Value  string  `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// UnmarshalYAML accepts either a scalar or a {value, weight} mapping
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Value = node.Value
		o.Weight = 1
		return nil
	}
	type plain Option
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("decode option: %w", err)
	}
	if p.Weight == 0 {
		p.Weight = 1
	}
	*o = Option(p)
	return nil
}

// Rule selects options when the source slot contains any keyword
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Options  []Option `yaml:"options"`
}

// Group is a counted subject such as "작업자 2명". Without nouns it yields
// the bare count ("15분", "0.72").
type Group struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	Decimals int      `yaml:"decimals"`
	Counter  string   `yaml:"counter"`
	Nouns    []string `yaml:"nouns"`
}

// Range is an inclusive numeric range
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Input configures the situation-description templates
type Input struct {
	BaselineLabels []Option        `yaml:"baseline_labels"`
	UnsetPhrases   []string        `yaml:"unset_phrases"`
	Groups         []TemplateGroup `yaml:"groups"`
	UnsetGroups    []TemplateGroup `yaml:"unset_groups"` // optional, Groups otherwise
}

// TemplateGroup is a weighted set of templates chosen uniformly
type TemplateGroup struct {
	Name      string   `yaml:"name"`
	Weight    float64  `yaml:"weight"`
	Templates []string `yaml:"templates"`
}

// Output configures the recommendation sentences
type Output struct {
	Sentences []SentenceWeight `yaml:"sentences"`
	Tiers     map[string]Pools `yaml:"tiers"`
}

// SentenceWeight is one entry of the sentence-count distribution
type SentenceWeight struct {
	Count  int     `yaml:"count"`
	Weight float64 `yaml:"weight"`
}

// Pools holds the sentence templates for one tier
type Pools struct {
	Analysis  []string `yaml:"analysis"`
	Rationale []string `yaml:"rationale"`
	Action    []string `yaml:"action"`
	Followup  []string `yaml:"followup"`
}

// Tier returns the tier with the given key
func (d *Domain) Tier(key string) (*Tier, error) {
	for i := range d.Tiers {
		if d.Tiers[i].Key == key {
			return &d.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTier, d.Key, key)
}

// Measure returns the measure with the given key
func (d *Domain) Measure(key string) (*Measure, error) {
	for i := range d.Measures {
		if d.Measures[i].Key == key {
			return &d.Measures[i], nil
		}
	}
	return nil, fmt.Errorf("unknown measure %s/%s", d.Key, key)
}

// BucketKey names a bucket in distributions. Domains with several measures
// qualify it with the measure key.
func (d *Domain) BucketKey(measure, bucket string) string {
	if len(d.Measures) > 1 {
		return measure + "/" + bucket
	}
	return bucket
}

// TierWeights returns the tier table in declaration order
func (d *Domain) TierWeights() []Weight {
	out := make([]Weight, len(d.Tiers))
	for i, t := range d.Tiers {
		out[i] = Weight{Key: t.Key, Label: t.Label, Weight: t.Weight}
	}
	return out
}

// Weight is a named configured weight, used for reporting
type Weight struct {
	Key    string
	Label  string
	Weight float64
}
