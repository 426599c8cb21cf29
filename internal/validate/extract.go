package validate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
)

var (
	sentenceEnd = regexp.MustCompile(`[다요오]\.(?:\s|$)`)
	numericTime = regexp.MustCompile(`\d{1,2}:\d{2}`)
	hmToken     = regexp.MustCompile(`(\d+)시간(?: (\d+)분)?|(\d+)분`)
)

// token is a number with a measure unit found in text
type token struct {
	text    string
	start   int
	value   float64
	measure *domain.Measure
}

// extractor finds measure tokens and clock expressions for one domain
type extractor struct {
	domain  *domain.Domain
	plain   *regexp.Regexp // nil when every measure uses hm
	hm      bool
	spoken  *regexp.Regexp
	labels  []string
	unset   []string
	byUnit  map[string][]*domain.Measure
	hmUnits []*domain.Measure
}

func newExtractor(d *domain.Domain) *extractor {
	e := &extractor{domain: d, byUnit: map[string][]*domain.Measure{}}

	var units []string
	for i := range d.Measures {
		m := &d.Measures[i]
		if m.Format == domain.FormatHM {
			e.hm = true
			e.hmUnits = append(e.hmUnits, m)
			continue
		}
		if _, seen := e.byUnit[m.Unit]; !seen {
			units = append(units, regexp.QuoteMeta(m.Unit))
		}
		e.byUnit[m.Unit] = append(e.byUnit[m.Unit], m)
	}
	if len(units) > 0 {
		e.plain = regexp.MustCompile(`(\d+(?:\.\d+)?)(` + strings.Join(units, "|") + `)`)
	}

	var prefixes []string
	seen := map[string]bool{}
	for _, l := range d.Clock.Labels {
		if !seen[l.Label] {
			seen[l.Label] = true
			prefixes = append(prefixes, regexp.QuoteMeta(l.Label))
		}
	}
	e.spoken = regexp.MustCompile(`(?:` + strings.Join(prefixes, "|") + `) \d{1,2}시(?: \d{1,2}분)?`)

	for _, l := range d.Input.BaselineLabels {
		e.labels = append(e.labels, strings.TrimSuffix(l.Value, ":"))
	}
	e.unset = append(e.unset, d.Input.UnsetPhrases...)
	longestFirst(e.labels)
	longestFirst(e.unset)
	return e
}

func longestFirst(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
}

// stripClock blanks every clock expression and reports the format found
func (e *extractor) stripClock(text string) (string, string) {
	format := ""
	if e.spoken.MatchString(text) {
		format = model.ClockSpoken
		text = e.spoken.ReplaceAllString(text, " ")
	}
	if numericTime.MatchString(text) {
		if format == "" {
			format = model.ClockNumeric
		}
		text = numericTime.ReplaceAllString(text, " ")
	}
	return text, format
}

// tokens returns measure tokens in order of appearance
func (e *extractor) tokens(text string) []token {
	var out []token
	if e.plain != nil {
		for _, loc := range e.plain.FindAllStringSubmatchIndex(text, -1) {
			v, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
			if err != nil {
				continue
			}
			unit := text[loc[4]:loc[5]]
			out = append(out, token{
				text:    text[loc[0]:loc[1]],
				start:   loc[0],
				value:   v,
				measure: e.resolve(unit, text),
			})
		}
	}
	if e.hm {
		for _, loc := range hmToken.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, token{
				text:    text[loc[0]:loc[1]],
				start:   loc[0],
				value:   float64(hmMinutes(text, loc)),
				measure: e.hmUnits[0],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func hmMinutes(text string, loc []int) int {
	num := func(a, b int) int {
		if a < 0 {
			return 0
		}
		n, _ := strconv.Atoi(text[a:b])
		return n
	}
	if loc[6] >= 0 {
		return num(loc[6], loc[7])
	}
	return num(loc[2], loc[3])*60 + num(loc[4], loc[5])
}

// resolve picks the measure for a unit, using the measure name when several
// measures share it
func (e *extractor) resolve(unit, text string) *domain.Measure {
	cands := e.byUnit[unit]
	if len(cands) == 1 {
		return cands[0]
	}
	for _, m := range cands {
		if strings.Contains(text, m.Name) {
			return m
		}
	}
	return cands[0]
}

// isBaseline reports whether the token directly follows a baseline label
func (e *extractor) isBaseline(text string, t token) bool {
	before := strings.TrimRight(text[:t.start], " :")
	for _, l := range e.labels {
		if strings.HasSuffix(before, l) {
			return true
		}
	}
	return false
}

func (e *extractor) unsetPhrase(text string) string {
	for _, p := range e.unset {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}

func countSentences(output string) int {
	return len(sentenceEnd.FindAllStringIndex(output, -1))
}
