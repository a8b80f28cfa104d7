package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wechat-cli/cmd/wechat-cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
