package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runguard/runguard/internal/history"
	"github.com/runguard/runguard/internal/logger"
	"github.com/runguard/runguard/internal/procscan"
)

// errAlreadyRunning signals the duplicate-found exit code; main prints
// nothing extra for it
var errAlreadyRunning = errors.New("another instance is already running")

var checkCmd = &cobra.Command{
	Use:   "check <script>",
	Short: "Exit 0 if no other instance of <script> is running, 1 if one is",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	token := args[0]
	if token == "" {
		return fmt.Errorf("script token cannot be empty (an empty token matches every interpreter process)")
	}

	checker := newChecker()

	// With history enabled the full scan runs so the match details can be
	// recorded; otherwise the short-circuit form is enough.
	if cfg.History.Enabled {
		report, err := checker.Scan(cmd.Context(), token)
		if err != nil {
			return err
		}
		recordCheck(logger.With("command", "check", "script", token), token, report)
		return reportResult(token, report.Running(), firstMatch(report))
	}

	running, err := checker.IsScriptAlreadyRunning(cmd.Context(), token)
	if err != nil {
		return err
	}
	return reportResult(token, running, nil)
}

// reportResult prints the outcome and maps "running" to the sentinel error
func reportResult(token string, running bool, match *procscan.Match) error {
	if running {
		if !quiet {
			if match != nil {
				fmt.Fprintf(rootCmd.ErrOrStderr(), "another instance of %q is running (pid %d)\n", token, match.Pid)
			} else {
				fmt.Fprintf(rootCmd.ErrOrStderr(), "another instance of %q is running\n", token)
			}
		}
		return errAlreadyRunning
	}

	if !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), "no other instance of %q found\n", token)
	}
	return nil
}

// recordCheck appends the result to the history store. History failures
// are logged, not fatal: the check result is still valid without them.
func recordCheck(log logger.Logger, token string, report *procscan.Report) {
	store, err := history.Open(cfg.History.Dir)
	if err != nil {
		log.Warn("failed to open history store", "error", err)
		return
	}
	defer store.Close()

	rec := history.Record{Token: token, Running: report.Running()}
	if m := firstMatch(report); m != nil {
		rec.MatchedPID = int64(m.Pid)
		rec.MatchedCmdline = strings.Join(m.Cmdline, " ")
	}

	if err := store.SaveCheck(rec); err != nil {
		log.Warn("failed to record check", "error", err)
	}
}

func firstMatch(report *procscan.Report) *procscan.Match {
	if len(report.Matches) == 0 {
		return nil
	}
	return &report.Matches[0]
}
