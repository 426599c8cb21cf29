package model

// TierKind describes how a tier relates the measured value to its baseline
type TierKind string

const (
	KindAbove  TierKind = "above"  // measured exceeds the baseline
	KindWithin TierKind = "within" // measured at or under the baseline
	KindUnset  TierKind = "unset"  // no baseline configured
)

// Clock is the sampled time of observation and its rendered expression
type Clock struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Spoken bool   `json:"spoken"` // Korean spoken form instead of HH:MM
	Text   string `json:"text"`
}

// SituationRecord is the structured state behind one generated sample.
// It is built fresh for every sample and never shared between goroutines.
type SituationRecord struct {
	Domain    string   `json:"domain"`
	Tier      string   `json:"tier"`
	TierLabel string   `json:"tier_label"`
	Kind      TierKind `json:"kind"`

	Measure  string   `json:"measure"`
	Bucket   string   `json:"bucket"`
	Measured float64  `json:"measured"`
	Baseline *float64 `json:"baseline,omitempty"` // nil for unset tiers
	Decimals int      `json:"decimals"`

	Clock Clock             `json:"clock"`
	Slots map[string]string `json:"slots,omitempty"`

	// Derived numeric texts that may appear in the output without
	// appearing in the input (follow-up thresholds and similar).
	Derived []string `json:"derived,omitempty"`

	Sentences int `json:"sentences"` // set by the renderer
}

// HasBaseline reports whether the record carries a baseline value
func (r SituationRecord) HasBaseline() bool {
	return r.Baseline != nil
}

// Diff returns the absolute difference between measured and baseline
func (r SituationRecord) Diff() float64 {
	if r.Baseline == nil {
		return 0
	}
	d := r.Measured - *r.Baseline
	if d < 0 {
		return -d
	}
	return d
}

// Sample is one corpus row
type Sample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Domain string `json:"domain"` // Korean domain label
}

// Result pairs a rendered sample with the record it was rendered from
type Result struct {
	Record SituationRecord `json:"record"`
	Sample Sample          `json:"sample"`

	// Texts bound into the templates, kept for validation.
	ValueText    string `json:"value_text"`
	BaselineText string `json:"baseline_text,omitempty"`
	DiffText     string `json:"diff_text,omitempty"`
	UnsetPhrase  string `json:"unset_phrase,omitempty"`
}
