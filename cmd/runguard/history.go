package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runguard/runguard/internal/domain"
	"github.com/runguard/runguard/internal/history"
	"github.com/runguard/runguard/internal/logger"
)

var (
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [script]",
	Short: "Show recent duplicate checks recorded for a script",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum records to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete records older than this before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("%w: set history.enabled in the config to start recording checks", domain.ErrHistoryDisabled)
	}

	store, err := history.Open(cfg.History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyPrune > 0 {
		n, err := store.Prune(historyPrune)
		if err != nil {
			return err
		}
		logger.Get().Debug("pruned history", "removed", n)
	}

	var records []history.Record
	if len(args) == 1 {
		records, err = store.Recent(args[0], historyLimit)
	} else {
		records, err = store.RecentAll(historyLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no recorded checks")
		return nil
	}

	sanitizer := logger.NewSanitizer()
	for _, rec := range records {
		result := "clear"
		if rec.Running {
			result = fmt.Sprintf("running (pid %d)", rec.MatchedPID)
		}
		line := fmt.Sprintf("%s  %-20s %s", rec.CheckedAt.Format(time.RFC3339), rec.Token, result)
		if rec.MatchedCmdline != "" {
			line += "  " + sanitizer.Sanitize(rec.MatchedCmdline)
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
