package procscan

import (
	"context"
	"fmt"
	"time"
)

// WaitUntilClear polls the process table until no other instance of
// scriptName is running, then returns nil. It checks once immediately and
// then on every tick. The context cancels or times out the wait; scan
// errors abort it.
//
// This is still advisory: another instance may start the moment this
// returns.
func (c *Checker) WaitUntilClear(ctx context.Context, scriptName string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	running, err := c.IsScriptAlreadyRunning(ctx, scriptName)
	if err != nil {
		return err
	}
	if !running {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			running, err := c.IsScriptAlreadyRunning(ctx, scriptName)
			if err != nil {
				return err
			}
			if !running {
				return nil
			}
		}
	}
}
