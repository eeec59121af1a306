package procscan

import (
	"context"
	"fmt"
	"strings"
)

// DefaultInterpreters is the interpreter name prefix list used when none is
// configured. A process is only inspected when its name starts with one of
// these prefixes (case-insensitive).
//
// Known limitation: a renamed or unlisted interpreter binary makes a genuine
// duplicate invisible to the scan. Extend the list via SetInterpreters.
var DefaultInterpreters = []string{"python"}

// Checker scans the process table for other instances of a script.
type Checker struct {
	enum         Enumerator
	interpreters []string
}

// NewChecker creates a checker on top of the given enumerator.
func NewChecker(enum Enumerator) *Checker {
	return &Checker{
		enum:         enum,
		interpreters: DefaultInterpreters,
	}
}

// SetInterpreters replaces the interpreter name prefix list.
// Empty entries are ignored; an empty list restores the default.
func (c *Checker) SetInterpreters(names []string) {
	var cleaned []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		cleaned = DefaultInterpreters
	}
	c.interpreters = cleaned
}

// IsScriptAlreadyRunning reports whether any other process looks like an
// interpreter running scriptName: its name starts with a configured
// interpreter prefix and any single command-line argument contains
// scriptName as a substring (case-sensitive). The first match wins;
// enumeration order is OS-defined, so no ordering is guaranteed.
//
// The calling process itself is always excluded. Processes that vanish
// mid-scan or deny metadata access are skipped silently. A failure to
// enumerate the table at all is returned as an error.
//
// Sharp edge: an empty scriptName is a substring of every argument, so it
// matches any inspected process that has at least one argument.
func (c *Checker) IsScriptAlreadyRunning(ctx context.Context, scriptName string) (bool, error) {
	procs, err := c.enum.Processes(ctx)
	if err != nil {
		return false, err
	}

	self := c.enum.SelfPid()
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}

		match, _, err := c.inspect(ctx, p, scriptName)
		if err != nil {
			return false, err
		}
		if match != nil {
			return true, nil
		}
	}
	return false, nil
}

// Scan performs the same walk as IsScriptAlreadyRunning but does not stop
// at the first match: it returns every matching process along with every
// process that had to be skipped, so callers can see exactly what the scan
// did and did not evaluate.
func (c *Checker) Scan(ctx context.Context, scriptName string) (*Report, error) {
	procs, err := c.enum.Processes(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	self := c.enum.SelfPid()
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}

		match, skip, err := c.inspect(ctx, p, scriptName)
		if err != nil {
			return nil, err
		}
		if match != nil {
			report.Matches = append(report.Matches, *match)
		}
		if skip != nil {
			report.Skips = append(report.Skips, *skip)
		}
	}
	return report, nil
}

// inspect evaluates a single process. Exactly one of the returns is set:
// a match, a skip (one of the two recoverable conditions), or an error for
// anything unexpected. All nil means the process was filtered out or its
// command line did not contain the token.
func (c *Checker) inspect(ctx context.Context, p Process, scriptName string) (*Match, *Skip, error) {
	name, err := p.Name(ctx)
	if err != nil {
		if reason, ok := classifySkip(err); ok {
			return nil, &Skip{Pid: p.Pid(), Reason: reason}, nil
		}
		return nil, nil, fmt.Errorf("failed to read name of pid %d: %w", p.Pid(), err)
	}

	if !c.isInterpreter(name) {
		return nil, nil, nil
	}

	cmdline, err := p.Cmdline(ctx)
	if err != nil {
		if reason, ok := classifySkip(err); ok {
			return nil, &Skip{Pid: p.Pid(), Reason: reason}, nil
		}
		return nil, nil, fmt.Errorf("failed to read cmdline of pid %d: %w", p.Pid(), err)
	}

	for _, arg := range cmdline {
		if strings.Contains(arg, scriptName) {
			return &Match{
				Pid:     p.Pid(),
				Name:    name,
				Arg:     arg,
				Cmdline: cmdline,
			}, nil, nil
		}
	}
	return nil, nil, nil
}

// isInterpreter checks the case-insensitive prefix filter.
func (c *Checker) isInterpreter(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range c.interpreters {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// IsScriptAlreadyRunning scans the real process table with the default
// interpreter list. Convenience wrapper for callers that do not need to
// inject an enumerator or tune the filter.
func IsScriptAlreadyRunning(ctx context.Context, scriptName string) (bool, error) {
	return NewChecker(NewSystemEnumerator()).IsScriptAlreadyRunning(ctx, scriptName)
}
