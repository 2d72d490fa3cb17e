package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage"
	"github.com/hwbot/partswatch/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the refresh schedule and record counts per category",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	err = writeStatus(ctx, os.Stdout, postgres.NewScheduleRepo(db), postgres.NewComponentRepo(db))
	if err != nil {
		slog.Error("Failed to read status", "error", err)
		os.Exit(1)
	}
}

func writeStatus(
	ctx context.Context,
	out io.Writer,
	schedules storage.ScheduleRepository,
	components storage.ComponentRepository,
) error {
	entries, err := schedules.GetAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tNEXT DUE\tRECORDS")

	for _, e := range entries {
		count, err := components.Count(ctx, e.Category)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n",
			e.Category, domain.DateOf(e.NextDue).Format("2006-01-02"), count)
	}
	return w.Flush()
}
