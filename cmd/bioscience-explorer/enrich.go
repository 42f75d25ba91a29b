package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bioscience-explorer/internal/enrich"
	"github.com/pdiddy/bioscience-explorer/internal/secrets"
	"github.com/pdiddy/bioscience-explorer/internal/store"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Replace synthetic AI fields of stored publications with Claude analyses",
	Long: `Enrich sends each stored, not yet enriched publication to Claude and
writes the returned summary, key findings, methodology, mission relevance,
impact score, and keywords back to the database. Run "store ingest" first.

The API key is read from --api-key, the enrich.api_key config value, or
.secrets/anthropic-api-key.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("model", "", "Claude model identifier")
	enrichCmd.Flags().String("api-key", "", "Anthropic API key")
	enrichCmd.Flags().Int("limit", 0, "maximum publications to enrich (0 = all)")
	enrichCmd.Flags().Int("concurrency", 0, "parallel API calls (default 4)")
	enrichCmd.Flags().Bool("all", false, "re-enrich publications that were already enriched")

	bindFlag(enrichCmd, "enrich.model", "model")
	bindFlag(enrichCmd, "enrich.api_key", "api-key")
	bindFlag(enrichCmd, "enrich.limit", "limit")
	bindFlag(enrichCmd, "enrich.concurrency", "concurrency")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg := types.EnrichConfig{
		AIConfig: types.AIConfig{
			Model:      viper.GetString("enrich.model"),
			APIKey:     loadedSecrets.Or(secrets.AnthropicAPIKey, viper.GetString("enrich.api_key")),
			MaxRetries: viper.GetInt("enrich.max_retries"),
		},
		Limit:       viper.GetInt("enrich.limit"),
		Concurrency: viper.GetInt("enrich.concurrency"),
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: set --api-key or write it to %s%s", secrets.DefaultDir, secrets.AnthropicAPIKey)
	}

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	opts := store.QueryOptions{MaxResults: store.ExportLimit}
	if cfg.Limit > 0 {
		opts.MaxResults = cfg.Limit
	}
	if all, _ := cmd.Flags().GetBool("all"); !all {
		pending := false
		opts.Enriched = &pending
	}
	pubs, err := st.QueryPublications(ctx, opts)
	if err != nil {
		return err
	}
	if len(pubs) == 0 {
		fmt.Println("Nothing to enrich.")
		return nil
	}

	analyzer := enrich.NewClaudeAnalyzer(cfg.AIConfig, &http.Client{Timeout: 2 * time.Minute})
	summary, err := enrich.EnrichAll(ctx, analyzer, st, pubs, cfg, os.Stdout)
	fmt.Fprintf(os.Stdout, "enriched: %d, failed: %d\n", summary.Enriched, summary.Failed)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d publication(s) failed enrichment", summary.Failed)
	}
	return nil
}
