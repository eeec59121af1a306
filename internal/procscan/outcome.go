package procscan

import (
	"errors"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

// SkipReason explains why a process could not be evaluated during a scan.
type SkipReason int

const (
	// SkipVanished means the process exited between enumeration and inspection.
	SkipVanished SkipReason = iota
	// SkipAccessDenied means the OS refused access to the process's metadata.
	SkipAccessDenied
)

// String returns the string representation of the reason
func (r SkipReason) String() string {
	switch r {
	case SkipVanished:
		return "vanished"
	case SkipAccessDenied:
		return "access-denied"
	default:
		return "unknown"
	}
}

// Match records a process whose command line contained the script token.
type Match struct {
	Pid     int32
	Name    string
	Arg     string // the argument the token was found in
	Cmdline []string
}

// Skip records a process that was enumerated but could not be inspected.
type Skip struct {
	Pid    int32
	Reason SkipReason
}

// Report is the full result of a scan: every match plus every process that
// had to be skipped. Processes filtered out by the interpreter-name check
// do not appear at all.
type Report struct {
	Matches []Match
	Skips   []Skip
}

// Running reports whether the scan found at least one other instance.
func (r *Report) Running() bool {
	return len(r.Matches) > 0
}

// SkipCount returns how many processes were skipped for the given reason.
func (r *Report) SkipCount(reason SkipReason) int {
	n := 0
	for _, s := range r.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// classifySkip decides whether a per-process read error is one of the two
// recoverable conditions. Only these two are suppressed during a scan;
// everything else propagates to the caller.
func classifySkip(err error) (SkipReason, bool) {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, syscall.ESRCH):
		return SkipVanished, true
	case errors.Is(err, os.ErrPermission):
		return SkipAccessDenied, true
	}
	return 0, false
}
