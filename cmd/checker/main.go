package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"design-checker/internal/cli"
	"design-checker/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRoot(envService).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
