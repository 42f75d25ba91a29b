// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bioscience-explorer/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Persist and query publications and insights in SQLite",
	Long: `Store manages a local SQLite database of publications and insights with
FTS5 full-text search over titles and abstracts. Use subcommands to ingest
the feed, query stored publications, list stored insights, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the feed and upsert every publication",
	Long: `Ingest loads and normalizes the feed and writes each publication to the
database. Unchanged rows are skipped; rows already enriched with Claude keep
their AI fields. With --insights the generated insights for the full dataset
are stored as well.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	withInsights, _ := cmd.Flags().GetBool("insights")

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService(ctx, newLogger())
	if err != nil {
		return err
	}
	defer svc.Close()

	pubs, err := svc.Publications(ctx)
	if err != nil {
		return err
	}

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.SavePublications(ctx, pubs, os.Stdout)
	if err != nil {
		return err
	}

	if withInsights {
		insights, err := svc.Insights(ctx, pubs, "")
		if err != nil {
			return err
		}
		n, err := st.SaveInsights(ctx, insights)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "insights stored: %d\n", n)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d publication(s) failed to store", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query stored publications with full-text search and filters",
	Long: `Query searches stored publications using FTS5 over title and abstract,
structured filters (organism, experiment type, enrichment state), or both.
Full-text results are ranked by relevance; otherwise rows come back in
ingest order.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := st.QueryPublications(ctx, storeOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-10s  %-50s  %-16s  %-16s  %s\n",
		"Rank", "ID", "Title", "Organism", "Experiment", "Impact")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 112))
	for i, p := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-10s  %-50s  %-16s  %-16s  %d\n",
			i+1, p.ID, truncate(p.Title, 50), truncate(p.Organism, 16),
			truncate(p.ExperimentType, 16), p.ImpactScore)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- insights subcommand ---

var storeInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "List stored insights by confidence and recency",
	RunE:  runStoreInsights,
}

func runStoreInsights(cmd *cobra.Command, args []string) error {
	typ, err := insightTypeFlag(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	stored, err := st.ListInsights(ctx, typ, limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stored)
	}

	if len(stored) == 0 {
		fmt.Println("No insights stored.")
		return nil
	}
	for _, si := range stored {
		fmt.Fprintf(os.Stdout, "#%-4d [%s] %s (%.2f) %s\n",
			si.RowID, si.Type, si.Title, si.ConfidenceScore, si.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to YAML or JSON",
	Long: `Export writes stored publications (or a filtered subset) and all stored
insights to <data-dir>/export.yaml or export.json. Supports the same filter
flags as query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	opts := storeOptsFromFlags(cmd, args)

	var path string
	switch format {
	case store.FormatYAML, "":
		path, err = st.ExportYAML(ctx, opts)
	case store.FormatJSON:
		path, err = st.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func storeOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	organism, _ := cmd.Flags().GetString("organism")
	experiment, _ := cmd.Flags().GetString("experiment-type")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Text:           text,
		Organism:       organism,
		ExperimentType: experiment,
		MaxResults:     limit,
	}
	if cmd.Flags().Changed("enriched") {
		enriched, _ := cmd.Flags().GetBool("enriched")
		opts.Enriched = &enriched
	}
	return opts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	storeCmd.PersistentFlags().Int("max-results", 0, "default maximum number of query results (default 20)")
	bindFlag(storeCmd, "store.max_results", "max-results")

	storeIngestCmd.Flags().Bool("insights", false, "also store insights generated for the full dataset")

	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("query", "", "full-text search over title and abstract")
		c.Flags().String("organism", "", "filter by organism")
		c.Flags().String("experiment-type", "", "filter by experiment type")
		c.Flags().Bool("enriched", false, "only enriched (true) or only unenriched (false) publications")
		c.Flags().Int("limit", 0, "maximum results (0 = use default)")
	}
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	storeInsightsCmd.Flags().String("type", "", "filter by insight type")
	storeInsightsCmd.Flags().Int("limit", 0, "maximum insights (0 = use default)")
	storeInsightsCmd.Flags().Bool("json", false, "output insights as JSON")

	storeExportCmd.Flags().String("format", store.FormatYAML, "export format: yaml or json")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeInsightsCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
