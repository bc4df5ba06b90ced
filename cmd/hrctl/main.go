package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/odyssey-hrms/cmd/hrctl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.DefaultBootstrap).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "hrctl:", err)
		stop()
		os.Exit(1)
	}
}
