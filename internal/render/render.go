package render

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/ppiankov/crowdgen/internal/cache"
	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
)

// Renderer turns situation records into input/output text pairs
type Renderer struct {
	domain *domain.Domain
	engine *liquid.Engine
	cache  *cache.Templates

	input []group
	unset []group
	pools map[string]pools
}

type group struct {
	name      string
	weight    float64
	templates []*liquid.Template
}

type pools struct {
	analysis  []*liquid.Template
	rationale []*liquid.Template
	action    []*liquid.Template
	followup  []*liquid.Template
}

// New parses every template of d up front, so a broken template fails at
// startup instead of mid-run. A nil cache gets a private one.
func New(d *domain.Domain, tc *cache.Templates) (*Renderer, error) {
	if tc == nil {
		tc = cache.NewTemplates(0, time.Hour)
	}
	r := &Renderer{
		domain: d,
		engine: liquid.NewEngine(),
		cache:  tc,
		pools:  make(map[string]pools, len(d.Tiers)),
	}

	var err error
	if r.input, err = r.compileGroups(d.Input.Groups); err != nil {
		return nil, fmt.Errorf("compile %s input: %w", d.Key, err)
	}
	if r.unset, err = r.compileGroups(d.Input.UnsetGroups); err != nil {
		return nil, fmt.Errorf("compile %s unset input: %w", d.Key, err)
	}

	for _, t := range d.Tiers {
		p := d.Output.Tiers[t.Key]
		var cp pools
		for _, slot := range []struct {
			dst *[]*liquid.Template
			src []string
		}{
			{&cp.analysis, p.Analysis},
			{&cp.rationale, p.Rationale},
			{&cp.action, p.Action},
			{&cp.followup, p.Followup},
		} {
			if *slot.dst, err = r.compileAll(slot.src); err != nil {
				return nil, fmt.Errorf("compile %s/%s output: %w", d.Key, t.Key, err)
			}
		}
		r.pools[t.Key] = cp
	}
	return r, nil
}

func (r *Renderer) compileGroups(groups []domain.TemplateGroup) ([]group, error) {
	out := make([]group, 0, len(groups))
	for _, g := range groups {
		tpls, err := r.compileAll(g.Templates)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		out = append(out, group{name: g.Name, weight: g.Weight, templates: tpls})
	}
	return out, nil
}

func (r *Renderer) compileAll(srcs []string) ([]*liquid.Template, error) {
	out := make([]*liquid.Template, 0, len(srcs))
	for _, src := range srcs {
		tpl, err := r.compile(src)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func (r *Renderer) compile(src string) (*liquid.Template, error) {
	key := cache.Key(src)
	if tpl, ok := r.cache.Get(key); ok {
		return tpl, nil
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	r.cache.Set(key, tpl)
	return tpl, nil
}

// Render produces the sample for rec and returns it with the record it came
// from. Every number in the text comes from rec.
func (r *Renderer) Render(rng *rand.Rand, rec model.SituationRecord) (model.Result, error) {
	d := r.domain
	m, err := d.Measure(rec.Measure)
	if err != nil {
		return model.Result{}, err
	}

	res := model.Result{ValueText: m.Text(rec.Measured)}
	label, err := pickLabel(rng, d.Input.BaselineLabels)
	if err != nil {
		return model.Result{}, fmt.Errorf("pick baseline label: %w", err)
	}

	b := liquid.Bindings{
		"time":           rec.Clock.Text,
		"value":          domain.FormatNumber(rec.Measured, m.Decimals),
		"value_text":     res.ValueText,
		"unit":           m.Unit,
		"measure":        m.Name,
		"bucket":         rec.Bucket,
		"baseline_label": label,
		"tier":           rec.TierLabel,
		"domain":         d.Label,
	}
	for name, v := range rec.Slots {
		b[name] = v
	}

	if rec.Baseline != nil {
		res.BaselineText = m.Text(*rec.Baseline)
		res.DiffText = m.Text(m.Quantize(rec.Diff()))
		b["baseline"] = domain.FormatNumber(*rec.Baseline, m.Decimals)
		b["baseline_text"] = res.BaselineText
		b["baseline_clause"] = label + " " + res.BaselineText
		b["diff"] = domain.FormatNumber(m.Quantize(rec.Diff()), m.Decimals)
		b["diff_text"] = res.DiffText
		b["unset_phrase"] = ""
	} else {
		res.UnsetPhrase, err = sampler.Pick(rng, d.Input.UnsetPhrases)
		if err != nil {
			return model.Result{}, fmt.Errorf("pick unset phrase: %w", err)
		}
		for _, k := range []string{"baseline", "baseline_text", "diff", "diff_text"} {
			b[k] = ""
		}
		b["baseline_clause"] = res.UnsetPhrase
		b["unset_phrase"] = res.UnsetPhrase
	}

	groups := r.input
	if rec.Baseline == nil && len(r.unset) > 0 {
		groups = r.unset
	}
	input, err := r.renderInput(rng, groups, b)
	if err != nil {
		return model.Result{}, fmt.Errorf("render %s input: %w", d.Key, err)
	}

	count, err := r.sentenceCount(rng)
	if err != nil {
		return model.Result{}, err
	}
	output, err := r.renderOutput(rng, rec.Tier, count, b)
	if err != nil {
		return model.Result{}, fmt.Errorf("render %s output: %w", d.Key, err)
	}

	rec.Sentences = count
	res.Record = rec
	res.Sample = model.Sample{Input: input, Output: output, Domain: d.Label}
	return res, nil
}

func (r *Renderer) renderInput(rng *rand.Rand, groups []group, b liquid.Bindings) (string, error) {
	weights := make([]float64, len(groups))
	for i, g := range groups {
		weights[i] = g.weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return "", err
	}
	tpl, err := sampler.Pick(rng, groups[idx].templates)
	if err != nil {
		return "", err
	}
	out, err := tpl.RenderString(b)
	if err != nil {
		return "", err
	}
	return tidy(out), nil
}

func (r *Renderer) sentenceCount(rng *rand.Rand) (int, error) {
	dist := r.domain.Output.Sentences
	weights := make([]float64, len(dist))
	for i, s := range dist {
		weights[i] = s.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return 0, fmt.Errorf("choose sentence count: %w", err)
	}
	return dist[idx].Count, nil
}

// renderOutput composes analysis, rationale, action and follow-up sentences
// according to count
func (r *Renderer) renderOutput(rng *rand.Rand, tier string, count int, b liquid.Bindings) (string, error) {
	p, ok := r.pools[tier]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTier, tier)
	}

	order := [][]*liquid.Template{p.analysis, p.action}
	switch count {
	case 3:
		order = [][]*liquid.Template{p.analysis, p.rationale, p.action}
	case 4:
		order = [][]*liquid.Template{p.analysis, p.rationale, p.action, p.followup}
	}

	sentences := make([]string, 0, len(order))
	for _, pool := range order {
		tpl, err := sampler.Pick(rng, pool)
		if err != nil {
			return "", err
		}
		s, err := tpl.RenderString(b)
		if err != nil {
			return "", err
		}
		sentences = append(sentences, strings.TrimRight(tidy(s), ". "))
	}
	return strings.Join(sentences, ". ") + ".", nil
}

func pickLabel(rng *rand.Rand, labels []domain.Option) (string, error) {
	weights := make([]float64, len(labels))
	for i, l := range labels {
		weights[i] = l.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return "", err
	}
	return labels[idx].Value, nil
}

// tidy collapses the gaps left by empty optional slots
func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " ,", ",")
	return strings.TrimLeft(s, ", ")
}
