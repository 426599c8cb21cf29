package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/crowdgen/internal/model"
)

// Version is the crowdgen release
const Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "crowdgen",
	Short: "Crowdgen - synthetic Korean corpora for crowd-safety monitoring",
	Long: `Crowdgen generates synthetic training pairs for crowd and site safety
monitoring. Each pair is a Korean situation description and a graded
recommendation, produced from a structured record whose severity tier
is decided before any text is written.

Ten monitoring domains ship with the binary: crowd density, falls,
fire, restricted zones, intrusion, protective equipment, heat stress,
heatmap dwell, queues and abnormal movement.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command; cancelling ctx stops generation
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of crowdgen.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crowdgen %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.crowdgen/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("report.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.crowdgen")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CROWDGEN_GENERATION_COUNT and friends
	viper.SetEnvPrefix("CROWDGEN")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	for key, value := range defaultSettings(cfg) {
		viper.SetDefault(key, value)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// defaultSettings lists every config key so AutomaticEnv can see them
func defaultSettings(cfg *model.Config) map[string]interface{} {
	return map[string]interface{}{
		"generation.count":     cfg.Generation.Count,
		"generation.seed":      cfg.Generation.Seed,
		"generation.workers":   cfg.Generation.Workers,
		"generation.timeout":   cfg.Generation.Timeout,
		"generation.tolerance": cfg.Generation.Tolerance,
		"output.dir":           cfg.Output.Dir,
		"output.merge":         cfg.Output.Merge,
		"store.enabled":        cfg.Store.Enabled,
		"store.path":           cfg.Store.Path,
		"report.verbose":       cfg.Report.Verbose,
		"report.issue_limit":   cfg.Report.IssueLimit,
	}
}
