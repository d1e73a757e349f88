package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"partselect/parser/internal/container"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair <appliance> [symptom]",
	Short: "Print the repair guide of an appliance or of one of its symptoms",
	Example: `  parser repair Dishwasher
  parser repair Refrigerator Not-Making-Ice`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := container.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("initialize container: %w", err)
		}
		defer app.Close()

		var out any
		if len(args) == 1 {
			out, err = app.Service.RepairGuide(ctx, args[0])
		} else {
			out, err = app.Service.SymptomDetail(ctx, args[0], args[1])
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
