// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bioscience-explorer CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bioscience-explorer/internal/cache"
	"github.com/pdiddy/bioscience-explorer/internal/dataset"
	"github.com/pdiddy/bioscience-explorer/internal/secrets"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultSource    = "data/publications.json"
	defaultUserAgent = "bioscience-explorer/0.1"
	defaultDataDir   = "data"
)

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets = secrets.Secrets{}

// rootCmd is the base command for the bioscience-explorer CLI.
var rootCmd = &cobra.Command{
	Use:   "bioscience-explorer",
	Short: "Search and analyze NASA space-biology publications",
	Long: `bioscience-explorer loads the NASA space-biology publication feed,
normalizes each record into a publication with organism, experiment type,
keywords, and themes, and derives research insights (progress, gaps,
consensus, actionable items) across the corpus.

Subcommands search the dataset, print insights and statistics, persist
publications and insights to SQLite, enrich stored records with Claude, and
serve everything over a JSON HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bioscience-explorer.yaml or ~/.config/bioscience-explorer/config.yaml)")
	rootCmd.PersistentFlags().String("source", "", "publication feed: http(s) URL or local JSON file")
	rootCmd.PersistentFlags().Duration("ttl", 0, "dataset cache lifetime (default 5m)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the shared insight cache (default: in-process)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the SQLite database and exports (default data)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug messages")

	bindFlag(rootCmd, "dataset.source", "source")
	bindFlag(rootCmd, "dataset.ttl", "ttl")
	bindFlag(rootCmd, "cache.redis_url", "redis-url")
	bindFlag(rootCmd, "store.data_dir", "data-dir")
	bindFlag(rootCmd, "verbose", "verbose")

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("dataset.source", defaultSource)
	viper.SetDefault("dataset.ttl", types.DefaultDatasetTTL)
	viper.SetDefault("dataset.timeout", 30*time.Second)
	viper.SetDefault("dataset.user_agent", defaultUserAgent)
	viper.SetDefault("dataset.max_retries", 5)

	viper.SetDefault("cache.key_prefix", cache.DefaultKeyPrefix)

	viper.SetDefault("store.data_dir", defaultDataDir)
	viper.SetDefault("store.max_results", 20)

	viper.SetDefault("enrich.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("enrich.max_retries", 3)
	viper.SetDefault("enrich.concurrency", 4)

	viper.SetDefault("serve.addr", ":4000")
	viper.SetDefault("serve.default_page_size", 50)

	a := types.DefaultAnalyticsConfig()
	viper.SetDefault("analytics.min_search_length", a.MinSearchLength)
	viper.SetDefault("analytics.min_area_token_length", a.MinAreaTokenLength)
	viper.SetDefault("analytics.top_areas", a.TopAreas)
	viper.SetDefault("analytics.understudied_below", a.UnderstudiedBelow)
	viper.SetDefault("analytics.finding_threshold", a.FindingThreshold)
	viper.SetDefault("analytics.mechanism_threshold", a.MechanismThreshold)
	viper.SetDefault("analytics.method_diversity_threshold", a.MethodDiversityThreshold)
	viper.SetDefault("analytics.max_actionable_items", a.MaxActionableItems)
	viper.SetDefault("analytics.max_supporting_titles", a.MaxSupportingTitles)
	viper.SetDefault("analytics.cache_key_ids", a.CacheKeyIDs)
	viper.SetDefault("analytics.insight_sample", a.InsightSample)
}

// bindFlag binds a flag of cmd (local or persistent) to a viper key so the
// flag overrides the config file and environment.
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bioscience-explorer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bioscience-explorer"))
		}
	}

	viper.SetEnvPrefix("BIOSCIENCE_EXPLORER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// --- config accessors ---

func datasetConfig() types.DatasetConfig {
	return types.DatasetConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    viper.GetDuration("dataset.timeout"),
			UserAgent:  viper.GetString("dataset.user_agent"),
			MaxRetries: viper.GetInt("dataset.max_retries"),
		},
		Source: viper.GetString("dataset.source"),
		TTL:    viper.GetDuration("dataset.ttl"),
	}
}

func analyticsConfig() types.AnalyticsConfig {
	return types.AnalyticsConfig{
		MinSearchLength:          viper.GetInt("analytics.min_search_length"),
		MinAreaTokenLength:       viper.GetInt("analytics.min_area_token_length"),
		TopAreas:                 viper.GetInt("analytics.top_areas"),
		UnderstudiedBelow:        viper.GetInt("analytics.understudied_below"),
		FindingThreshold:         viper.GetInt("analytics.finding_threshold"),
		MechanismThreshold:       viper.GetInt("analytics.mechanism_threshold"),
		MethodDiversityThreshold: viper.GetFloat64("analytics.method_diversity_threshold"),
		MaxActionableItems:       viper.GetInt("analytics.max_actionable_items"),
		MaxSupportingTitles:      viper.GetInt("analytics.max_supporting_titles"),
		CacheKeyIDs:              viper.GetInt("analytics.cache_key_ids"),
		InsightSample:            viper.GetInt("analytics.insight_sample"),
	}.WithDefaults()
}

func cacheConfig() types.CacheConfig {
	return types.CacheConfig{
		RedisURL:  loadedSecrets.Or(secrets.RedisURL, viper.GetString("cache.redis_url")),
		KeyPrefix: viper.GetString("cache.key_prefix"),
	}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		DataDir:    viper.GetString("store.data_dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newService builds the dataset service from configuration. The caller must
// Close it.
func newService(ctx context.Context, logger *slog.Logger) (*dataset.Service, error) {
	loader, err := dataset.NewLoader(datasetConfig())
	if err != nil {
		return nil, err
	}

	cfg := dataset.Config{
		Loader: loader,
		TTL:    viper.GetDuration("dataset.ttl"),
		Logger: logger,
	}
	a := analyticsConfig()
	cfg.Analytics = &a

	cc := cacheConfig()
	if cc.RedisURL != "" {
		store, err := cache.OpenRedisInsights(ctx, cc.RedisURL, cc.KeyPrefix)
		if err != nil {
			return nil, err
		}
		cfg.Insights = store
	}

	svc, err := dataset.New(cfg)
	if err != nil {
		if cfg.Insights != nil {
			cfg.Insights.Close()
		}
		return nil, err
	}
	return svc, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
