// Package main is the entry point for the khojlink CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgomes/khojlink/internal/reconcile"
)

const (
	exitFailure     = 1
	exitUnreachable = 2
	exitConfigure   = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, reconcile.ErrBackendUnreachable):
		return exitUnreachable
	case errors.Is(err, reconcile.ErrConfigureBackend):
		return exitConfigure
	default:
		return exitFailure
	}
}
