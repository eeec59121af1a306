package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/runguard/runguard/internal/config"
	"github.com/runguard/runguard/internal/logger"
	"github.com/runguard/runguard/internal/procscan"
)

var (
	cfgFile      string
	interpreters []string
	quiet        bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "runguard",
	Short: "Detect whether another instance of a script is already running",
	Long: `runguard scans the live process table for interpreter processes whose
command line contains a given script token. It is advisory only: it takes
no lock and gives no protection against two instances starting at the
same moment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		if len(interpreters) > 0 {
			cfg.Interpreters = interpreters
		}

		return initLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringSliceVar(&interpreters, "interpreter", nil, "interpreter name prefix to match (repeatable, overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress result messages; rely on the exit code")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the CLI with the given context
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// initLogger wires the config into the global logger. Logs go to stderr so
// stdout stays clean for command output.
func initLogger() error {
	logCfg := logger.Config{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		Format:  logger.ParseFormat(cfg.Logging.Format),
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
	}

	if cfg.Logging.File.Enabled {
		logCfg.Outputs = append(logCfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
		logCfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       config.ExpandPath(cfg.Logging.File.Path),
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxAgeDays: cfg.Logging.File.MaxAgeDays,
			MaxBackups: cfg.Logging.File.MaxBackups,
			Compress:   cfg.Logging.File.Compress,
		}
	}

	return logger.Init(logCfg)
}

// newChecker builds a checker on the real process table with the
// configured interpreter filter
func newChecker() *procscan.Checker {
	checker := procscan.NewChecker(procscan.NewSystemEnumerator())
	checker.SetInterpreters(cfg.Interpreters)
	return checker
}
