package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runguard/runguard/internal/logger"
	"github.com/runguard/runguard/internal/procscan"
)

var listCmd = &cobra.Command{
	Use:   "list <script>",
	Short: "List every process matching <script>, plus what the scan had to skip",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	token := args[0]
	if token == "" {
		return fmt.Errorf("script token cannot be empty (an empty token matches every interpreter process)")
	}

	report, err := newChecker().Scan(cmd.Context(), token)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sanitizer := logger.NewSanitizer()

	if len(report.Matches) == 0 {
		fmt.Fprintf(out, "no processes matching %q\n", token)
	}
	for _, m := range report.Matches {
		fmt.Fprintf(out, "%-8d %-16s %s\n", m.Pid, m.Name, sanitizer.Sanitize(strings.Join(m.Cmdline, " ")))
	}

	if len(report.Skips) > 0 {
		fmt.Fprintf(out, "skipped: %d vanished, %d access denied\n",
			report.SkipCount(procscan.SkipVanished),
			report.SkipCount(procscan.SkipAccessDenied))
	}

	return nil
}
