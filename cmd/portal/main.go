package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dipanjanswapna/ongonbd/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, build, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
