package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bioscience-explorer/internal/search"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the publication dataset",
	Long: `Stats prints the number of publications, distinct organisms and
experiment types, impact score statistics, and a per-year histogram. With
--filters it lists the values accepted by the filter flags instead.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	statsCmd.Flags().Bool("filters", false, "list the distinct organisms, experiment types, and themes")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	filters, _ := cmd.Flags().GetBool("filters")

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService(ctx, newLogger())
	if err != nil {
		return err
	}
	defer svc.Close()

	var out any
	if filters {
		opts, err := svc.FilterOptions(ctx)
		if err != nil {
			return err
		}
		out = opts
	} else {
		summary, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		if format == "text" || format == "" {
			search.FormatSummary(summary, os.Stdout)
			return nil
		}
		out = summary
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	}
}
