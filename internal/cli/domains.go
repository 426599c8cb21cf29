package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/crowdgen/internal/domain"
)

// domainsCmd represents the domains command
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the built-in monitoring domains",
	Long:  `List every domain in the built-in catalog with its measures and tier weights.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := domain.Builtin()
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, d := range catalog.All() {
			fmt.Fprintf(out, "%-12s %s (%s)\n", d.Key, d.Label, d.Mode)

			measures := make([]string, len(d.Measures))
			for i, m := range d.Measures {
				measures[i] = fmt.Sprintf("%s[%s]", m.Name, m.Unit)
			}
			fmt.Fprintf(out, "             measures: %s\n", strings.Join(measures, ", "))

			tiers := make([]string, 0, len(d.Tiers))
			for _, w := range d.TierWeights() {
				tiers = append(tiers, fmt.Sprintf("%s %g", w.Label, w.Weight))
			}
			fmt.Fprintf(out, "             tiers:    %s\n", strings.Join(tiers, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(domainsCmd)
}
