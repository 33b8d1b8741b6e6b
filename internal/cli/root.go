package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/bunkhouse/internal/logging"
	"github.com/ppiankov/bunkhouse/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bunkhouse",
	Short: "Bunkhouse - retreat bed assignment planner",
	Long: `Bunkhouse assigns retreat attendees to beds.

It reads a room map and a people list, resolves free-text "room with"
requests to people, groups and organizations, and places everyone it can
while honoring floor and bottom bunk needs. Mutual requests are kept in the
same room, groups and organizations are kept together where beds allow.

Everyone in the list ends up either placed or listed as unplaced with the
reasons the planner could find.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Bunkhouse.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bunkhouse %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.bunkhouse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults(model.DefaultConfig())

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// setDefaults registers every config key so that environment variables
// reach Unmarshal
func setDefaults(d *model.Config) {
	defaults := map[string]interface{}{
		"solver.time_limit":          d.Solver.TimeLimit,
		"solver.workers":             d.Solver.Workers,
		"solver.seed":                d.Solver.Seed,
		"solver.patience":            d.Solver.Patience,
		"resolve.fuzzy_threshold":    d.Resolve.FuzzyThreshold,
		"resolve.affinity_threshold": d.Resolve.AffinityThreshold,
		"resolve.affinity_bonus":     d.Resolve.AffinityBonus,
		"resolve.group_threshold":    d.Resolve.GroupThreshold,
		"resolve.first_name_minimum": d.Resolve.FirstNameMinimum,
		"objective.strict":           d.Objective.Strict,
		"objective.weights.place":    d.Objective.Weights.Place,
		"objective.weights.group":    d.Objective.Weights.Group,
		"objective.weights.attach":   d.Objective.Weights.Attach,
		"objective.weights.affinity": d.Objective.Weights.Affinity,
		"objective.weights.org":      d.Objective.Weights.Org,
		"cache.enabled":              d.Cache.Enabled,
		"cache.dir":                  d.Cache.Dir,
		"cache.ttl":                  d.Cache.TTL,
		"log.level":                  d.Log.Level,
		"log.format":                 d.Log.Format,
		"output.verbose":             d.Output.Verbose,
		"output.color_summary":       d.Output.ColorSummary,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".bunkhouse"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match BUNKHOUSE_*, with dots in
	// keys written as underscores (BUNKHOUSE_SOLVER_TIME_LIMIT)
	viper.SetEnvPrefix("BUNKHOUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: flags, environment,
// config file, then defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Output.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
