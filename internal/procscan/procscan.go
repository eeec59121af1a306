// Package procscan inspects the operating system's process table to detect
// whether another instance of a given script is already running.
//
// Detection is advisory only. Two processes can both scan, both see nothing,
// and both proceed; callers that need mutual exclusion must use a real lock.
package procscan

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// Process is a read-only view of one live process. Name and Cmdline hit the
// OS lazily and may fail if the process vanished or access is denied.
type Process interface {
	Pid() int32
	Name(ctx context.Context) (string, error)
	Cmdline(ctx context.Context) ([]string, error)
}

// Enumerator provides point-in-time access to the process table.
// It exists as an interface so tests can substitute a fake table.
type Enumerator interface {
	// Processes returns a snapshot of all live processes. The snapshot is
	// never cached; every call re-queries the OS.
	Processes(ctx context.Context) ([]Process, error)

	// SelfPid returns the pid of the calling process, which the scan
	// always excludes from consideration.
	SelfPid() int32
}

// SystemEnumerator reads the real process table via gopsutil.
type SystemEnumerator struct{}

// NewSystemEnumerator creates an enumerator backed by the host OS.
func NewSystemEnumerator() *SystemEnumerator {
	return &SystemEnumerator{}
}

// Processes enumerates all live processes on the host.
func (e *SystemEnumerator) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, sysProcess{p})
	}
	return out, nil
}

// SelfPid returns the current process id.
func (e *SystemEnumerator) SelfPid() int32 {
	return int32(os.Getpid())
}

// sysProcess adapts *process.Process to the Process interface.
type sysProcess struct {
	p *process.Process
}

func (s sysProcess) Pid() int32 {
	return s.p.Pid
}

func (s sysProcess) Name(ctx context.Context) (string, error) {
	return s.p.NameWithContext(ctx)
}

func (s sysProcess) Cmdline(ctx context.Context) ([]string, error) {
	return s.p.CmdlineSliceWithContext(ctx)
}
