package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"partselect/parser/internal/config"
	"partselect/parser/internal/container"
	"partselect/parser/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parser [part numbers...]",
	Short: "Extract structured part records from PartSelect product pages",
	Long: `Fetches PartSelect product pages and extracts a structured part record
(price, part numbers, installation, reviews, symptoms, related parts,
videos and compatible models).

With part numbers, scrapes them and prints the records as JSON.
Without arguments, runs the Redis stream workers until interrupted.

Examples:
  # Print one record
  parser PS11752778

  # Scrape several parts, bypassing the cache
  parser --force PS11752778 PS3406971

  # Run queue workers
  parser`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		return config.ConfigureLogging(cfg.Log)
	},
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	f := rootCmd.Flags()
	f.Bool("force", false, "bypass the record cache and stored records")
	f.Int("workers", 0, "concurrent scrapes (default fetcher.max_workers)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer app.Close()

	if len(args) == 0 {
		log.Info("Starting PartSelect workers...")
		return app.Run(ctx)
	}

	force, _ := cmd.Flags().GetBool("force")
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Fetcher.MaxWorkers
	}
	return scrape(ctx, app, args, workers, force)
}

func scrape(ctx context.Context, app *container.Container, partNumbers []string, workers int, force bool) error {
	results := app.Service.ScrapeMany(ctx, partNumbers, workers, force)

	records := make([]domain.PartRecord, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		records = append(records, r.Record)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	var out any = records
	if len(partNumbers) == 1 && len(records) == 1 {
		out = records[0]
	}
	if len(records) > 0 {
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d parts failed", failed, len(partNumbers))
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
