package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
	"github.com/ppiankov/crowdgen/internal/store"
)

var (
	runsDB     string
	runsJSON   string
	runsMD     string
	runsStrict bool
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List generation runs kept in the record store",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, path, err := openRunStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		runs, err := st.Runs(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintf(out, "No runs in %s\n", path)
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  seed %d  %s samples  %s\n",
				r.ID, humanize.Time(r.CreatedAt), r.Seed,
				humanize.Comma(int64(r.Samples)), strings.Join(r.Domains, ","))
		}

		stored, err := st.CountRows("samples")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d runs, %s stored samples\n", len(runs), humanize.Comma(int64(stored)))
		return nil
	},
}

// runsShowCmd re-validates the stored records of one run
var runsShowCmd = &cobra.Command{
	Use:   "show <run-id> [domain...]",
	Short: "Re-validate the stored records of a run",
	Long: `Load the structured records of a stored run and validate them again
against the current catalog. Without domain arguments every domain of the
run is checked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "record store path (default from config)")
	runsShowCmd.Flags().StringVar(&runsJSON, "json", "", "write the report as JSON")
	runsShowCmd.Flags().StringVar(&runsMD, "md", "", "write the report as Markdown")
	runsShowCmd.Flags().BoolVar(&runsStrict, "strict", false, "fail when any stored record mismatches")
}

func openRunStore() (*store.Store, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	path := cfg.Store.Path
	if runsDB != "" {
		path = runsDB
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open store: %w", err)
	}
	return st, path, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := domain.Builtin()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	st, _, err := openRunStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := st.Runs(cmd.Context())
	if err != nil {
		return err
	}
	var run *store.Run
	for i := range runs {
		if runs[i].ID == args[0] {
			run = &runs[i]
			break
		}
	}
	if run == nil {
		return fmt.Errorf("find run: no run %s", args[0])
	}

	keys := args[1:]
	if len(keys) == 0 {
		keys = run.Domains
	}
	domains, err := catalog.Select(keys)
	if err != nil {
		return fmt.Errorf("select domains: %w", err)
	}

	p := pipeline.NewPipeline(cfg, nil)
	reports := make([]*model.Report, 0, len(domains))
	failed := 0
	for _, d := range domains {
		results, err := st.Results(cmd.Context(), run.ID, d.Key)
		if err != nil {
			return fmt.Errorf("load %s: %w", d.Key, err)
		}
		if len(results) == 0 {
			fmt.Fprintf(os.Stderr, "✗ No stored records for %s in run %s\n", d.Key, run.ID)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Checking %s (%s records)\n", d.Label, humanize.Comma(int64(len(results))))
		}
		rep := p.Check(d, results)
		failed += rep.Validation.Unparsed + rep.Validation.Mismatch
		reports = append(reports, rep)
	}

	if err := renderReports(reports, runsJSON, runsMD); err != nil {
		return err
	}
	if runsStrict && failed > 0 {
		return fmt.Errorf("check run %s: %d records mismatched", run.ID, failed)
	}
	return nil
}
