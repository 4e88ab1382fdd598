package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/automaxprocs/maxprocs"

	appLog "agenda/internal/log"
)

const version = "0.1.0"

func main() {
	// maxprocs.Set logs through its own printer; keep it in our stream.
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		appLog.Debug("maxprocs", "msg", format, "args", args)
	})); err != nil {
		appLog.Error("failed to set GOMAXPROCS", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		appLog.Error("agenda failed", err)
		os.Exit(1)
	}
}
