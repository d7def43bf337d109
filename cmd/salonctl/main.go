// Command salonctl: консольный клиент панели администратора салона.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/salon-admin/internal/cli"
)

func main() {
	level := slog.LevelWarn
	if os.Getenv("SALONCTL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(&cli.App{
		Out:     os.Stdout,
		In:      os.Stdin,
		NewCore: cli.DefaultCoreFactory(logger, os.Stderr),
	})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
