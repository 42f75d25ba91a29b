package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bioscience-explorer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds the 429 retries for a single request (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DatasetConfig holds settings for loading and caching the publication feed.
type DatasetConfig struct {
	HTTPConfig `yaml:",inline"`

	// Source is the feed location: an http(s) URL or a local JSON file path.
	Source string `json:"source" yaml:"source"`

	// TTL is how long the normalized dataset is served from cache (default 5m).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// DefaultDatasetTTL is the dataset cache lifetime when none is configured.
const DefaultDatasetTTL = 5 * time.Minute

// AnalyticsConfig holds the tunable thresholds of search and insight
// generation. DefaultAnalyticsConfig documents the defaults.
type AnalyticsConfig struct {
	// MinSearchLength is the shortest search term (in runes) that filters;
	// shorter terms return the input unchanged.
	MinSearchLength int `json:"min_search_length" yaml:"min_search_length"`

	// MinAreaTokenLength is the shortest title token counted as a research area.
	MinAreaTokenLength int `json:"min_area_token_length" yaml:"min_area_token_length"`

	// TopAreas is the number of most frequent tokens kept as research areas.
	TopAreas int `json:"top_areas" yaml:"top_areas"`

	// UnderstudiedBelow is the mention count at which a critical area counts as
	// covered. Areas with zero mentions are missing; below this they are
	// understudied.
	UnderstudiedBelow int `json:"understudied_below" yaml:"understudied_below"`

	// FindingThreshold is the mention count that promotes a finding to consensus.
	FindingThreshold int `json:"finding_threshold" yaml:"finding_threshold"`

	// MechanismThreshold is the mention count that promotes a mechanism to consensus.
	MechanismThreshold int `json:"mechanism_threshold" yaml:"mechanism_threshold"`

	// MethodDiversityThreshold is the advanced-method presence ratio that must
	// be exceeded for a methodological-advancement insight.
	MethodDiversityThreshold float64 `json:"method_diversity_threshold" yaml:"method_diversity_threshold"`

	// MaxActionableItems caps urgent findings and countermeasure opportunities.
	MaxActionableItems int `json:"max_actionable_items" yaml:"max_actionable_items"`

	// MaxSupportingTitles caps the titles cited by one insight.
	MaxSupportingTitles int `json:"max_supporting_titles" yaml:"max_supporting_titles"`

	// CacheKeyIDs is how many leading publication IDs enter the insight cache key.
	CacheKeyIDs int `json:"cache_key_ids" yaml:"cache_key_ids"`

	// InsightSample is how many publications of a filtered set are analyzed
	// when generating insights for a query.
	InsightSample int `json:"insight_sample" yaml:"insight_sample"`
}

// DefaultAnalyticsConfig returns the thresholds used by the dashboard.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		MinSearchLength:          2,
		MinAreaTokenLength:       5,
		TopAreas:                 10,
		UnderstudiedBelow:        3,
		FindingThreshold:         3,
		MechanismThreshold:       2,
		MethodDiversityThreshold: 0.7,
		MaxActionableItems:       3,
		MaxSupportingTitles:      3,
		CacheKeyIDs:              10,
		InsightSample:            100,
	}
}

// WithDefaults replaces non-positive counts and limits with their defaults.
// Thresholds are kept as given.
func (c AnalyticsConfig) WithDefaults() AnalyticsConfig {
	d := DefaultAnalyticsConfig()
	for _, f := range []struct{ v, def *int }{
		{&c.MinAreaTokenLength, &d.MinAreaTokenLength},
		{&c.TopAreas, &d.TopAreas},
		{&c.MaxActionableItems, &d.MaxActionableItems},
		{&c.MaxSupportingTitles, &d.MaxSupportingTitles},
		{&c.CacheKeyIDs, &d.CacheKeyIDs},
		{&c.InsightSample, &d.InsightSample},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	if c.MinSearchLength < 0 {
		c.MinSearchLength = d.MinSearchLength
	}
	return c
}

// CacheConfig selects the insight cache backend.
type CacheConfig struct {
	// RedisURL enables the Redis insight store (e.g. "redis://localhost:6379/0").
	// Empty selects the in-process store.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`

	// KeyPrefix namespaces insight keys in Redis (default "insights:").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// StoreConfig holds settings for the SQLite publication store.
type StoreConfig struct {
	// DataDir is the directory containing the database and exports.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EnrichConfig holds settings for the AI enrichment stage.
type EnrichConfig struct {
	AIConfig `yaml:",inline"`

	// Limit caps how many publications are enriched per run (0 = all).
	Limit int `json:"limit" yaml:"limit"`

	// Concurrency bounds in-flight AI calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ServeConfig holds settings for the HTTP API.
type ServeConfig struct {
	// Addr is the listen address (default ":4000").
	Addr string `json:"addr" yaml:"addr"`

	// DefaultPageSize applies when a request omits page_size (default 50).
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`
}
