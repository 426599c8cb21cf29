package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/pipeline"
)

// Generator produces the corpus of one domain
type Generator interface {
	Generate(ctx context.Context, d *domain.Domain) (*pipeline.DomainResult, error)
}

// GenerateJob generates one domain
type GenerateJob struct {
	Index     int
	Domain    *domain.Domain
	Generator Generator
}

// Execute runs the generation
func (j *GenerateJob) Execute(ctx context.Context) Result {
	result, err := j.Generator.Generate(ctx, j.Domain)
	return &GenerateResult{
		Index:  j.Index,
		Key:    j.Domain.Key,
		Result: result,
		Error:  err,
	}
}

// GenerateResult is the outcome of a GenerateJob
type GenerateResult struct {
	Index  int
	Key    string
	Result *pipeline.DomainResult
	Error  error
}

// GetError returns the generation error
func (r *GenerateResult) GetError() error {
	return r.Error
}

// BatchProcessor generates several domains concurrently
type BatchProcessor struct {
	generator   Generator
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(generator Generator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		concurrency: concurrency,
	}
}

// Process generates every domain and returns the results in the order the
// domains were given. All generation errors are joined.
func (b *BatchProcessor) Process(ctx context.Context, domains []*domain.Domain) ([]*pipeline.DomainResult, error) {
	if len(domains) == 0 {
		return []*pipeline.DomainResult{}, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	collector := NewResultCollector()
	var drained sync.WaitGroup
	drained.Add(1)
	go func() {
		defer drained.Done()
		for r := range pool.Results() {
			collector.Add(r)
		}
	}()

	for i, d := range domains {
		if !pool.Submit(&GenerateJob{Index: i, Domain: d, Generator: b.generator}) {
			break
		}
	}
	pool.Wait()
	drained.Wait()

	results := collector.Results()
	sort.Slice(results, func(i, j int) bool {
		return results[i].(*GenerateResult).Index < results[j].(*GenerateResult).Index
	})

	var errs []error
	out := make([]*pipeline.DomainResult, 0, len(results))
	for _, r := range results {
		gr := r.(*GenerateResult)
		if gr.Error != nil {
			errs = append(errs, fmt.Errorf("domain %s: %w", gr.Key, gr.Error))
			continue
		}
		out = append(out, gr.Result)
	}
	if len(out)+len(errs) < len(domains) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// ReadKeysFromFile reads domain keys from a file, one per line. Blank lines
// and # comments are skipped, duplicates dropped.
func ReadKeysFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var keys []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			keys = append(keys, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return keys, nil
}
