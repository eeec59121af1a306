package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/runguard/runguard/internal/logger"
)

// Exit codes: 0 no other instance, 1 another instance found, 2 error.
const (
	exitOK        = 0
	exitDuplicate = 1
	exitError     = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := exitOK
	if err := Execute(ctx); err != nil {
		if errors.Is(err, errAlreadyRunning) {
			code = exitDuplicate
		} else {
			fmt.Fprintln(os.Stderr, "runguard:", err)
			code = exitError
		}
	}

	logger.Shutdown()
	stop()
	os.Exit(code)
}
