package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/crowdgen/internal/pipeline"
)

var (
	splitRatio float64
	splitSeed  int64
	splitOut   string
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <corpus.csv>",
	Short: "Split a corpus into train and validation files",
	Long: `Split shuffles a corpus with a fixed seed and writes <name>_train.csv
and <name>_valid.csv next to it (or into --out).

Example:
  crowdgen split dataset/all.csv
  crowdgen split dataset/all.csv --ratio 0.9 --seed 7 --out dataset/split`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().Float64Var(&splitRatio, "ratio", pipeline.DefaultTrainRatio, "share of rows in the train file")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", pipeline.DefaultSplitSeed, "shuffle seed")
	splitCmd.Flags().StringVar(&splitOut, "out", "", "output directory (default: next to the input)")
}

func runSplit(cmd *cobra.Command, args []string) error {
	path := args[0]
	samples, err := pipeline.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	train, valid, err := pipeline.Split(samples, splitRatio, splitSeed)
	if err != nil {
		return err
	}

	dir := splitOut
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	trainPath := filepath.Join(dir, base+"_train.csv")
	validPath := filepath.Join(dir, base+"_valid.csv")

	if err := pipeline.WriteFile(trainPath, train); err != nil {
		return fmt.Errorf("write train split: %w", err)
	}
	if err := pipeline.WriteFile(validPath, valid); err != nil {
		return fmt.Errorf("write validation split: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %s train rows → %s\n", humanize.Comma(int64(len(train))), trainPath)
	fmt.Fprintf(os.Stderr, "✓ %s validation rows → %s\n", humanize.Comma(int64(len(valid))), validPath)
	return nil
}
