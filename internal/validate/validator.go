package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
)

// Baseline distribution keys and issue kinds
const (
	baselinePresent = "present"
	baselineAbsent  = "absent"

	issueUnparsed = "unparsed"
	issueMismatch = "mismatch"
)

// Validator checks generated samples of one domain
type Validator struct {
	domain     *domain.Domain
	issueLimit int
	ext        *extractor
}

// NewValidator creates a validator listing at most issueLimit issues
func NewValidator(d *domain.Domain, issueLimit int) *Validator {
	if issueLimit < 0 {
		issueLimit = 0
	}
	return &Validator{
		domain:     d,
		issueLimit: issueLimit,
		ext:        newExtractor(d),
	}
}

func newReport() model.ValidationReport {
	return model.ValidationReport{
		Tiers:     model.NewDistribution(),
		Buckets:   model.NewDistribution(),
		Sentences: model.NewDistribution(),
		Clock:     model.NewDistribution(),
		Baseline:  model.NewDistribution(),
	}
}

func (v *Validator) issue(rep *model.ValidationReport, index int, kind, format string, args ...interface{}) {
	if kind == issueUnparsed {
		rep.Unparsed++
	} else {
		rep.Mismatch++
	}
	if len(rep.Issues) >= v.issueLimit {
		rep.Dropped++
		return
	}
	rep.Issues = append(rep.Issues, model.Issue{
		Index:  index,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Validate checks rendered results against the records they came from.
// Every failing sample is counted as a mismatch; nothing is dropped.
func (v *Validator) Validate(results []model.Result) *model.Report {
	rep := newReport()
	d := v.domain

	for i, res := range results {
		rec := res.Record
		rep.Total++
		rep.Tiers.Add(rec.TierLabel)
		rep.Buckets.Add(d.BucketKey(rec.Measure, rec.Bucket))
		rep.Sentences.Add(strconv.Itoa(rec.Sentences))
		if rec.Clock.Spoken {
			rep.Clock.Add(model.ClockSpoken)
		} else {
			rep.Clock.Add(model.ClockNumeric)
		}
		if rec.HasBaseline() {
			rep.Baseline.Add(baselinePresent)
		} else {
			rep.Baseline.Add(baselineAbsent)
		}

		if problem := v.check(res); problem != "" {
			v.issue(&rep, i, issueMismatch, "%s: %s", problem, res.Sample.Input)
		}
	}

	return &model.Report{
		Domain:      d.Key,
		Label:       d.Label,
		Source:      "records",
		GeneratedAt: time.Now().UTC(),
		Validation:  rep,
	}
}

// check returns a description of the first violated invariant, or ""
func (v *Validator) check(res model.Result) string {
	d := v.domain
	rec, s := res.Record, res.Sample

	if s.Domain != d.Label {
		return fmt.Sprintf("domain label %q", s.Domain)
	}

	tier, err := d.Classify(rec.Measured, rec.Baseline)
	if err != nil {
		return fmt.Sprintf("classify: %v", err)
	}
	if tier.Key != rec.Tier {
		return fmt.Sprintf("tier %s classifies as %s", rec.Tier, tier.Key)
	}

	if rec.Kind == model.KindUnset {
		if rec.Baseline != nil {
			return "unset tier carries a baseline"
		}
		if res.UnsetPhrase == "" || !strings.Contains(s.Input, res.UnsetPhrase) {
			return "input lacks the unset phrase"
		}
	} else if !strings.Contains(s.Input, res.BaselineText) {
		return fmt.Sprintf("input lacks baseline %s", res.BaselineText)
	}
	if !strings.Contains(s.Input, res.ValueText) {
		return fmt.Sprintf("input lacks value %s", res.ValueText)
	}
	if !strings.Contains(s.Output, res.ValueText) {
		return fmt.Sprintf("output lacks value %s", res.ValueText)
	}

	allowed := map[string]bool{res.ValueText: true}
	if rec.Baseline != nil {
		allowed[res.BaselineText] = true
		allowed[res.DiffText] = true
	}
	for _, t := range rec.Derived {
		allowed[t] = true
	}
	out := strings.ReplaceAll(s.Output, rec.Clock.Text, " ")
	for _, t := range v.ext.tokens(out) {
		if !allowed[t.text] {
			return fmt.Sprintf("output number %s not in the record", t.text)
		}
	}

	if !strings.HasSuffix(s.Output, ".") {
		return "output does not end with a period"
	}
	if n := countSentences(s.Output); n != rec.Sentences {
		return fmt.Sprintf("output has %d sentences, want %d", n, rec.Sentences)
	}
	return ""
}
