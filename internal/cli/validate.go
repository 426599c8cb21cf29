package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
)

var (
	valJSON   string
	valMD     string
	valStrict bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <corpus.csv>...",
	Short: "Audit existing corpus files from their text",
	Long: `Validate reads corpus files, groups rows by their Domain column and
re-extracts the measured value and baseline from each input with the
domain's units and labels. Each value is classified again and the tier,
bucket, sentence and clock distributions are compared with the domain's
configured weights.

Rows whose numbers cannot be read are counted as unparsed; rows that read
back inconsistently are counted as mismatches.

Example:
  crowdgen validate dataset/crowd.csv
  crowdgen validate dataset/*.csv --strict --json audit.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&valJSON, "json", "", "write the audit report as JSON")
	validateCmd.Flags().StringVar(&valMD, "md", "", "write the audit report as Markdown")
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "fail when any row is unparsed or mismatched")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := domain.Builtin()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var rows []model.Sample
	for _, path := range args {
		samples, err := pipeline.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Read %s rows from %s\n", humanize.Comma(int64(len(samples))), path)
		}
		rows = append(rows, samples...)
	}

	groups, unknown := groupByDomain(catalog, rows)
	for label, n := range unknown {
		fmt.Fprintf(os.Stderr, "✗ %s rows with unknown domain %q\n", humanize.Comma(int64(n)), label)
	}

	p := pipeline.NewPipeline(cfg, nil)
	reports := make([]*model.Report, 0, len(groups))
	failed := 0
	for _, g := range groups {
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Auditing %s (%s rows)\n", g.domain.Label, humanize.Comma(int64(len(g.rows))))
		}
		rep := p.Audit(g.domain, g.rows)
		failed += rep.Validation.Unparsed + rep.Validation.Mismatch
		reports = append(reports, rep)
	}

	if err := renderReports(reports, valJSON, valMD); err != nil {
		return err
	}

	if valStrict && (failed > 0 || len(unknown) > 0) {
		return fmt.Errorf("audit failed: %d rows unparsed or mismatched, %d unknown domains", failed, len(unknown))
	}
	return nil
}

type domainRows struct {
	domain *domain.Domain
	rows   []model.Sample
}

// groupByDomain splits rows by their Domain label, in catalog order
func groupByDomain(catalog *domain.Catalog, rows []model.Sample) ([]domainRows, map[string]int) {
	byKey := map[string][]model.Sample{}
	unknown := map[string]int{}
	for _, row := range rows {
		d, err := catalog.ByLabel(row.Domain)
		if err != nil {
			unknown[row.Domain]++
			continue
		}
		byKey[d.Key] = append(byKey[d.Key], row)
	}

	var groups []domainRows
	for _, d := range catalog.All() {
		if rs, ok := byKey[d.Key]; ok {
			groups = append(groups, domainRows{domain: d, rows: rs})
		}
	}
	return groups, unknown
}
