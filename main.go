package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ardnew/ftdr/cli"
	"github.com/ardnew/ftdr/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	exit := func(code int) {
		stop()
		os.Exit(code)
	}

	if err := cli.Run(ctx, exit, os.Args[1:]...); err != nil {
		log.Error("run failed", slog.Any("error", err))
		exit(1)
	}

	stop()
}
