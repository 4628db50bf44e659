package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "whiskctl",
		Short:        "Operator tools for the Whisk & Whisk backend",
		SilenceUsage: true,
	}
	root.AddCommand(newDashboardCmd(), newBackfillCmd(), newCreateUserCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
