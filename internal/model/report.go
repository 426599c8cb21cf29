package model

import "time"

// Report is the outcome of validating one domain's corpus
type Report struct {
	Domain      string    `json:"domain"`       // domain key
	Label       string    `json:"label"`        // Korean domain label
	Source      string    `json:"source"`       // "records" or "text"
	GeneratedAt time.Time `json:"generated_at"` // when validation ran

	Validation ValidationReport `json:"validation"`
	Score      Score            `json:"score"`
}

// ValidationReport holds aggregated counts for a corpus. Distributions are
// keyed by tier label, bucket name, sentence count and clock format.
type ValidationReport struct {
	Total int `json:"total"`

	Tiers     Distribution `json:"tiers"`
	Buckets   Distribution `json:"buckets"`
	Sentences Distribution `json:"sentences"`
	Clock     Distribution `json:"clock"`
	Baseline  Distribution `json:"baseline"`

	Unparsed int     `json:"unparsed"` // samples whose values could not be extracted
	Mismatch int     `json:"mismatch"` // samples violating a consistency check
	Issues   []Issue `json:"issues,omitempty"`
	Dropped  int     `json:"dropped_issues,omitempty"` // issues beyond the listing limit
}

// Clock format keys used in clock distributions
const (
	ClockNumeric = "numeric"
	ClockSpoken  = "spoken"
)

// Issue describes one sample that failed a check
type Issue struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"` // "unparsed" or "mismatch"
	Detail string `json:"detail"`
}

// Distribution counts occurrences per category
type Distribution struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// NewDistribution creates an empty distribution
func NewDistribution() Distribution {
	return Distribution{Counts: make(map[string]int)}
}

// Add records one occurrence of key
func (d *Distribution) Add(key string) {
	if d.Counts == nil {
		d.Counts = make(map[string]int)
	}
	d.Counts[key]++
	d.Total++
}

// Percent returns the share of key in percent (0 when empty)
func (d Distribution) Percent(key string) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Counts[key]) * 100 / float64(d.Total)
}

// Score summarizes how closely a corpus follows its configured weights
type Score struct {
	Converged    bool     `json:"converged"`     // every dimension within tolerance
	MaxDeviation float64  `json:"max_deviation"` // largest deviation in percentage points
	Tolerance    float64  `json:"tolerance"`
	Signals      []Signal `json:"signals"`
}

// Signal represents a diagnostic signal with transparent data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalTierDrift     SignalType = "tier_drift"     // tier shares vs weights
	SignalBucketDrift   SignalType = "bucket_drift"   // magnitude buckets vs weights
	SignalSentenceDrift SignalType = "sentence_drift" // sentence counts vs weights
	SignalClockDrift    SignalType = "clock_drift"    // numeric vs spoken time
	SignalUnparsed      SignalType = "unparsed"
	SignalMismatch      SignalType = "mismatch"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
