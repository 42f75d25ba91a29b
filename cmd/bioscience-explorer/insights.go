package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bioscience-explorer/internal/insight"
	"github.com/pdiddy/bioscience-explorer/internal/search"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

var insightsCmd = &cobra.Command{
	Use:   "insights [term]",
	Short: "Generate research insights for the matching publications",
	Long: `Insights analyzes the publications matching the optional term and filter
flags and reports research progress, gaps, consensus, and actionable mission
considerations. Only the first --sample matches are analyzed.

Results are memoized per batch; with --redis-url the cache is shared across
processes.`,
	RunE: runInsights,
}

func init() {
	addCriteriaFlags(insightsCmd)
	insightsCmd.Flags().String("type", "", "insight type: progress, gap, consensus, actionable (default all)")
	insightsCmd.Flags().Int("sample", 0, "number of matching publications to analyze (default 100)")
	insightsCmd.Flags().Bool("json", false, "output insights as JSON")

	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	typ, err := insightTypeFlag(cmd)
	if err != nil {
		return err
	}
	sample, _ := cmd.Flags().GetInt("sample")

	q := search.Query{Term: strings.Join(args, " ")}
	applyCriteriaFlags(cmd, &q.Criteria)

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService(ctx, newLogger())
	if err != nil {
		return err
	}
	defer svc.Close()

	insights, err := svc.QueryInsights(ctx, q, typ, sample)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(insights)
	}
	insight.FormatText(insights, os.Stdout)
	return nil
}

// insightTypeFlag validates --type. Empty means every type.
func insightTypeFlag(cmd *cobra.Command) (types.InsightType, error) {
	raw, _ := cmd.Flags().GetString("type")
	if raw == "" {
		return "", nil
	}
	typ, ok := types.ParseInsightType(strings.ToLower(raw))
	if !ok {
		return "", fmt.Errorf("unknown insight type %q: use progress, gap, consensus, or actionable", raw)
	}
	return typ, nil
}
