package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runguard/runguard/internal/logger"
)

var (
	waitInterval time.Duration
	waitTimeout  time.Duration
)

var waitCmd = &cobra.Command{
	Use:   "wait <script>",
	Short: "Block until no other instance of <script> is running",
	Args:  cobra.ExactArgs(1),
	RunE:  runWait,
}

func init() {
	waitCmd.Flags().DurationVar(&waitInterval, "interval", 0, "poll interval (default: from config)")
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "give up after this long (0 waits forever)")
}

func runWait(cmd *cobra.Command, args []string) error {
	token := args[0]
	if token == "" {
		return fmt.Errorf("script token cannot be empty (an empty token matches every interpreter process)")
	}

	interval := waitInterval
	if interval == 0 {
		interval = cfg.Wait.Interval
	}

	ctx := cmd.Context()
	if waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, waitTimeout)
		defer cancel()
	}

	log := logger.With("command", "wait", "script", token)
	log.Debug("waiting for other instances to exit", "interval", interval.String())

	err := newChecker().WaitUntilClear(ctx, token, interval)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("still running after %v: %w", waitTimeout, err)
	}
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "no other instance of %q found\n", token)
	}
	return nil
}
