package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/crowdgen/internal/model"
)

// Audit re-extracts values from finished corpus rows without their records.
// The measured value and baseline are read back from the input text and
// classified again. Rows whose values cannot be read are counted as
// unparsed; rows that read back inconsistently are counted as mismatches.
func (v *Validator) Audit(rows []model.Sample) *model.Report {
	rep := newReport()
	d := v.domain

	for i, row := range rows {
		rep.Total++

		if row.Domain != d.Label {
			v.issue(&rep, i, issueMismatch, "domain label %q", row.Domain)
			continue
		}

		rep.Sentences.Add(strconv.Itoa(countSentences(row.Output)))
		if !strings.HasSuffix(row.Output, ".") {
			v.issue(&rep, i, issueMismatch, "output does not end with a period: %s", row.Output)
			continue
		}

		text, format := v.ext.stripClock(row.Input)
		if format == "" {
			v.issue(&rep, i, issueUnparsed, "no time expression: %s", row.Input)
			continue
		}
		rep.Clock.Add(format)

		var measured, baseline *token
		toks := v.ext.tokens(text)
		for j := range toks {
			t := &toks[j]
			if baseline == nil && v.ext.isBaseline(text, *t) {
				baseline = t
				continue
			}
			if measured == nil {
				measured = t
			}
		}
		unset := v.ext.unsetPhrase(text)

		switch {
		case measured == nil:
			v.issue(&rep, i, issueUnparsed, "no measured value: %s", row.Input)
			continue
		case baseline == nil && unset == "":
			v.issue(&rep, i, issueUnparsed, "no baseline or unset phrase: %s", row.Input)
			continue
		case baseline != nil && unset != "":
			v.issue(&rep, i, issueMismatch, "both baseline and %q: %s", unset, row.Input)
			continue
		case baseline != nil && baseline.measure != measured.measure:
			v.issue(&rep, i, issueMismatch, "baseline unit differs from value: %s", row.Input)
			continue
		}

		m := measured.measure
		bucket := ""
		for _, b := range m.Buckets {
			if b.Contains(measured.value) {
				bucket = b.Name
				break
			}
		}
		if bucket == "" {
			v.issue(&rep, i, issueMismatch, "value %s outside every bucket", measured.text)
			continue
		}

		var base *float64
		if baseline != nil {
			base = &baseline.value
		}
		tier, err := d.Classify(measured.value, base)
		if err != nil {
			v.issue(&rep, i, issueMismatch, "classify: %v", err)
			continue
		}

		if !strings.Contains(row.Output, measured.text) {
			v.issue(&rep, i, issueMismatch, "output lacks value %s", measured.text)
			continue
		}

		rep.Tiers.Add(tier.Label)
		rep.Buckets.Add(d.BucketKey(m.Key, bucket))
		if base != nil {
			rep.Baseline.Add(baselinePresent)
		} else {
			rep.Baseline.Add(baselineAbsent)
		}
	}

	return &model.Report{
		Domain:      d.Key,
		Label:       d.Label,
		Source:      "text",
		GeneratedAt: time.Now().UTC(),
		Validation:  rep,
	}
}
