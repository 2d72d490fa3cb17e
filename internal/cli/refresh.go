package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hwbot/partswatch/internal/control"
	"github.com/hwbot/partswatch/internal/core/domain"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [category]",
	Short: "Fetch one category from the product-search API right now",
	Args:  cobra.ExactArgs(1),
	Run:   runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) {
	category, err := domain.ParseCategory(args[0])
	if err != nil {
		fmt.Printf("Unknown category %q, valid ones are:\n", args[0])
		for _, c := range domain.Categories() {
			fmt.Printf("  %s\n", c)
		}
		os.Exit(1)
	}

	cfg := loadConfig()
	// One-shot run, no bot needed.
	cfg.Telegram.Token = ""

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := app.Refresher().RefreshOne(ctx, category); err != nil {
		slog.Error("Refresh failed", "category", category, "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = app.Stop(shutdownCtx)
}
