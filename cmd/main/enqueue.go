package main

import (
	"fmt"

	"partselect/parser/internal/config"
	"partselect/parser/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <part numbers...>",
	Short: "Queue parts for the stream workers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return fmt.Errorf("enqueue requires redis.enabled")
		}
		// Enqueueing never fetches, so skip the browser.
		cfg.Fetcher.Engine = config.EngineHTTP

		app, err := container.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initialize container: %w", err)
		}
		defer app.Close()

		force, _ := cmd.Flags().GetBool("force")
		added, err := app.Service.EnqueueParts(cmd.Context(), args, force)
		if err != nil {
			return err
		}
		log.Infof("✅ %d parts queued", added)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().Bool("force", false, "bypass the record cache when the task runs")
	rootCmd.AddCommand(enqueueCmd)
}
