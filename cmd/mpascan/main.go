// Command mpascan runs the illegal fishing pipeline over a CSV file of
// vessel observations without starting the API server.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "mpascan",
		Short:        "Flag possible illegal fishing inside marine protected areas",
		SilenceUsage: true,
	}
	root.AddCommand(newScanCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
