package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
	"github.com/ppiankov/crowdgen/internal/report"
	"github.com/ppiankov/crowdgen/internal/store"
	"github.com/ppiankov/crowdgen/internal/worker"
)

var (
	genAll       bool
	genList      string
	genCount     int
	genSeed      int64
	genOut       string
	genMerge     string
	genWorkers   int
	genDB        string
	genTolerance float64
	genTimeout   time.Duration
	genJSON      string
	genMD        string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [domain...]",
	Short: "Generate corpora for one or more domains",
	Long: `Generate samples for the named domains (or all of them), validate
every sample against the record it was rendered from, and write one CSV
file per domain.

Example:
  crowdgen generate --all
  crowdgen generate crowd fire --count 500 --seed 7
  crowdgen generate --all --merge dataset/all.csv --db dataset/crowdgen.db`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&genAll, "all", false, "generate every domain in the catalog")
	generateCmd.Flags().StringVar(&genList, "list", "", "file with domain keys, one per line")
	generateCmd.Flags().IntVar(&genCount, "count", 0, "samples per domain (default from config)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "base seed (default from config)")
	generateCmd.Flags().StringVar(&genOut, "out", "", "output directory (default from config)")
	generateCmd.Flags().StringVar(&genMerge, "merge", "", "also write every domain into this CSV file")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 0, "domains generated concurrently (default from config)")
	generateCmd.Flags().StringVar(&genDB, "db", "", "store records in this SQLite file")
	generateCmd.Flags().Float64Var(&genTolerance, "tolerance", 0, "allowed drift in percentage points (default from config)")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "overall timeout (default from config)")
	generateCmd.Flags().StringVar(&genJSON, "json", "", "write the validation report as JSON")
	generateCmd.Flags().StringVar(&genMD, "md", "", "write the validation report as Markdown")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)
	if cfg.Generation.Count < 0 {
		return fmt.Errorf("invalid sample count %d", cfg.Generation.Count)
	}

	catalog, err := domain.Builtin()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	keys := args
	if genList != "" {
		listed, err := worker.ReadKeysFromFile(genList)
		if err != nil {
			return fmt.Errorf("read domain list: %w", err)
		}
		keys = append(keys, listed...)
	}
	if genAll {
		keys = catalog.Keys()
	}
	if len(keys) == 0 {
		return fmt.Errorf("no domains given; name them or use --all (known: %v)", catalog.Keys())
	}
	domains, err := catalog.Select(keys)
	if err != nil {
		return err
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if cfg.Generation.Timeout > 0 {
		ctx, cancel = context.WithTimeout(cmd.Context(), cfg.Generation.Timeout)
	} else {
		ctx, cancel = context.WithCancel(cmd.Context())
	}
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Crowdgen Corpus Generation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Domains:      %d\n", len(domains))
	fmt.Fprintf(os.Stderr, "  Samples:      %s per domain\n", humanize.Comma(int64(cfg.Generation.Count)))
	fmt.Fprintf(os.Stderr, "  Seed:         %d\n", cfg.Generation.Seed)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Generation.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	var progress pipeline.ProgressFunc
	if cfg.Report.Verbose {
		limiter := worker.NewLimiter(2, 1)
		progress = limiter.Progress(func(key string, done, total int) {
			fmt.Fprintf(os.Stderr, "⚙️  %s %s/%s\n", key, humanize.Comma(int64(done)), humanize.Comma(int64(total)))
		})
	}

	p := pipeline.NewPipeline(cfg, progress)
	processor := worker.NewBatchProcessor(p, cfg.Generation.Workers)

	start := time.Now()
	results, err := processor.Process(ctx, domains)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	reports := make([]*model.Report, 0, len(results))
	for _, r := range results {
		path := filepath.Join(cfg.Output.Dir, r.Domain.Key+".csv")
		if err := pipeline.WriteFile(path, r.Samples()); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Domain.Key, err)
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%s)\n", r.Domain.Label, path, fileSize(path))
		reports = append(reports, r.Report)
	}

	if cfg.Output.Merge != "" {
		if err := pipeline.WriteFile(cfg.Output.Merge, pipeline.Merge(results)); err != nil {
			return fmt.Errorf("write merged corpus: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ merged → %s (%s)\n", cfg.Output.Merge, fileSize(cfg.Output.Merge))
	}

	if cfg.Store.Enabled {
		if err := saveRun(ctx, cfg, results); err != nil {
			return err
		}
	}

	if err := renderReports(reports, genJSON, genMD); err != nil {
		return err
	}

	if cfg.Report.Verbose {
		fmt.Fprintf(os.Stderr, "\nDone in %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// applyGenerateFlags overrides config values with flags that were set
func applyGenerateFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Generation.Count = genCount
	}
	if flags.Changed("seed") {
		cfg.Generation.Seed = genSeed
	}
	if flags.Changed("workers") {
		cfg.Generation.Workers = genWorkers
	}
	if flags.Changed("tolerance") {
		cfg.Generation.Tolerance = genTolerance
	}
	if flags.Changed("timeout") {
		cfg.Generation.Timeout = genTimeout
	}
	if flags.Changed("out") {
		cfg.Output.Dir = genOut
	}
	if flags.Changed("merge") {
		cfg.Output.Merge = genMerge
	}
	if flags.Changed("db") {
		cfg.Store.Enabled = true
		cfg.Store.Path = genDB
	}
}

func saveRun(ctx context.Context, cfg *model.Config, results []*pipeline.DomainResult) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	id, err := st.SaveRun(ctx, cfg.Generation.Seed, cfg.Generation.Count, results)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ stored run %s in %s\n", id, cfg.Store.Path)
	return nil
}

// renderReports prints the summary and writes the optional report files
func renderReports(reports []*model.Report, jsonPath, mdPath string) error {
	r := report.NewRenderer(os.Stderr)
	fmt.Fprintln(os.Stderr)
	r.RenderSummary(reports)

	if jsonPath != "" {
		if err := r.RenderJSON(reports, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(reports, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}
	return nil
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}
