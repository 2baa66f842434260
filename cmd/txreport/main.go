package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/txreport/txreport/internal/commands"
	"github.com/txreport/txreport/internal/month"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		if errors.Is(err, month.ErrInvalidFormat) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
