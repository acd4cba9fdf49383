package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"craftyprep/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "craftyprep:", err)
		stop()
		os.Exit(1)
	}
}
