package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/crowdgen/internal/cache"
	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/render"
	"github.com/ppiankov/crowdgen/internal/sampler"
	"github.com/ppiankov/crowdgen/internal/score"
	"github.com/ppiankov/crowdgen/internal/situation"
	"github.com/ppiankov/crowdgen/internal/validate"
)

// ProgressFunc is told how many samples of a domain are done
type ProgressFunc func(domain string, done, total int)

// Pipeline generates and validates the corpus of one domain at a time
type Pipeline struct {
	templates *cache.Templates
	scorer    *score.Scorer
	config    *model.Config
	progress  ProgressFunc
}

// NewPipeline creates a pipeline with the given configuration. Compiled
// templates are shared between domains through one cache.
func NewPipeline(cfg *model.Config, progress ProgressFunc) *Pipeline {
	return &Pipeline{
		templates: cache.NewTemplates(0, time.Hour),
		scorer:    score.NewScorer(cfg.Generation.Tolerance),
		config:    cfg,
		progress:  progress,
	}
}

// DomainResult is the generated corpus of one domain with its report
type DomainResult struct {
	Domain  *domain.Domain
	Seed    int64
	Results []model.Result
	Report  *model.Report
}

// Samples returns the corpus rows in generation order
func (r *DomainResult) Samples() []model.Sample {
	out := make([]model.Sample, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Sample
	}
	return out
}

// Generate produces the configured number of samples for d. The domain's
// random stream is derived from the base seed and its key, so the result
// does not depend on which other domains run or in what order.
func (p *Pipeline) Generate(ctx context.Context, d *domain.Domain) (*DomainResult, error) {
	count := p.config.Generation.Count
	if count < 0 {
		return nil, fmt.Errorf("generate %s: invalid sample count %d", d.Key, count)
	}
	seed := sampler.Derive(p.config.Generation.Seed, d.Key)
	rng := sampler.New(seed)

	// 1. Prepare builder and renderer
	builder := situation.NewBuilder(d)
	renderer, err := render.New(d, p.templates)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	tiers := d.TierWeights()
	weights := make([]float64, len(tiers))
	for i, t := range tiers {
		weights[i] = t.Weight
	}

	// 2. Sample, build and render
	results := make([]model.Result, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate %s: %w", d.Key, err)
		}

		idx, err := sampler.ChooseIndex(rng, weights)
		if err != nil {
			return nil, fmt.Errorf("choose tier: %w", err)
		}
		tier := &d.Tiers[idx]

		rec, err := builder.Build(rng, tier)
		if err != nil {
			return nil, fmt.Errorf("build sample %d: %w", i, err)
		}
		res, err := renderer.Render(rng, rec)
		if err != nil {
			return nil, fmt.Errorf("render sample %d: %w", i, err)
		}
		results = append(results, res)

		if p.progress != nil {
			p.progress(d.Key, i+1, count)
		}
	}

	// 3. Validate against the records and score drift
	return &DomainResult{
		Domain:  d,
		Seed:    seed,
		Results: results,
		Report:  p.Check(d, results),
	}, nil
}

// Check validates results of d against their records and scores drift
func (p *Pipeline) Check(d *domain.Domain, results []model.Result) *model.Report {
	report := validate.NewValidator(d, p.config.Report.IssueLimit).Validate(results)
	report.Score = p.scorer.Calculate(d, report.Validation)
	return report
}

// Audit re-validates existing corpus rows of d from their text alone
func (p *Pipeline) Audit(d *domain.Domain, rows []model.Sample) *model.Report {
	report := validate.NewValidator(d, p.config.Report.IssueLimit).Audit(rows)
	report.Score = p.scorer.Calculate(d, report.Validation)
	return report
}
