package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventpulse/internal/config"
	"eventpulse/internal/engine"
	"eventpulse/internal/loader"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Filter flags
	flagFrom       string
	flagTo         string
	flagActivation int64
	flagBrackets   []string
	flagHasAccount string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "eventpulse",
	Short: "eventpulse - activation event analytics",
	Long: `eventpulse computes dashboard metrics and the Experience Index from a
table snapshot exported by the event platform.

It loads the snapshot file named in the configuration (or --config /
EVENTPULSE_SNAPSHOT), applies the filter flags, and prints the derived
views. The watch command keeps running and recomputes on every change to
the snapshot file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		if verbose || cfg.Logging.Level == "debug" {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if level, parseErr := zapcore.ParseLevel(cfg.Logging.Level); parseErr == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(level)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newEngine loads the snapshot file and builds an engine with the filter
// flags applied.
func newEngine() (*engine.Engine, error) {
	snap, err := loader.Load(cfg.Snapshot.Path)
	if err != nil {
		return nil, err
	}
	logger.Debug("snapshot loaded",
		zap.String("path", cfg.Snapshot.Path),
		zap.Int("tables", len(snap.Tables)))

	e := engine.New(engine.WithSurveyConfig(cfg.Scoring))
	e.Load(snap)

	criteria, err := parseCriteria()
	if err != nil {
		return nil, err
	}
	e.UpdateFilters(criteria)
	return e, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "eventpulse.yaml", "path to the config file")

	for _, cmd := range []*cobra.Command{reportCmd, surveyCmd, watchCmd} {
		cmd.Flags().StringVar(&flagFrom, "from", "", "start of the date window (YYYY-MM-DD)")
		cmd.Flags().StringVar(&flagTo, "to", "", "end of the date window (YYYY-MM-DD)")
		cmd.Flags().Int64Var(&flagActivation, "activation", 0, "restrict to one activation id")
		cmd.Flags().StringSliceVar(&flagBrackets, "age-bracket", nil, "age brackets to keep (<18, 18-24, 25-40, 41-59, 60+, unknown)")
		cmd.Flags().StringVar(&flagHasAccount, "has-account", "", "keep only users with (true) or without (false) an account")
		rootCmd.AddCommand(cmd)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
