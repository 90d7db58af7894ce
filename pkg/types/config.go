// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trendsift/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CacheConfig holds settings for provider-call memoization.
type CacheConfig struct {
	// TTL is how long a cached provider response is served before the
	// adapter is invoked again (default 3600s).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// TrendsConfig holds settings for the Google Trends adapter.
type TrendsConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the trends API (SerpApi).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// SerperConfig holds settings for the Serper web/scholar adapter.
type SerperConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is sent as the X-API-KEY header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the number of organic results requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExaConfig holds settings for the Exa neural search adapter and the
// content-fetch endpoint.
type ExaConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is sent as the x-api-key header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the number of neural results requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// UseAutoprompt lets Exa rewrite the query into its preferred form.
	UseAutoprompt bool `json:"use_autoprompt" yaml:"use_autoprompt"`
}

// EnrichConfig holds settings for the second-stage content fetch.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// RatePerMinute bounds calls to the content-fetch service
	// (default 20, the service's published limit).
	RatePerMinute int `json:"rate_per_minute" yaml:"rate_per_minute"`

	// MaxAttempts is the total number of tries per URL, first call
	// included (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffBase is the first retry delay; it doubles each attempt and
	// gains random jitter (default 500ms).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`

	// Parallelism bounds concurrent enrichment workers (default 4). The
	// rate limiter still gates actual call frequency.
	Parallelism int `json:"parallelism" yaml:"parallelism"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
	Trends TrendsConfig `json:"trends" yaml:"trends"`
	Serper SerperConfig `json:"serper" yaml:"serper"`
	Exa    ExaConfig    `json:"exa" yaml:"exa"`
	Enrich EnrichConfig `json:"enrich" yaml:"enrich"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// overrides are present.
func DefaultPipelineConfig() PipelineConfig {
	httpDefaults := HTTPConfig{
		Timeout:   30 * time.Second,
		UserAgent: "trendsift/0.1",
	}
	return PipelineConfig{
		Cache:  CacheConfig{TTL: time.Hour},
		Trends: TrendsConfig{HTTPConfig: httpDefaults},
		Serper: SerperConfig{HTTPConfig: httpDefaults, MaxResults: 10},
		Exa:    ExaConfig{HTTPConfig: httpDefaults, MaxResults: 10, UseAutoprompt: true},
		Enrich: EnrichConfig{
			HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: httpDefaults.UserAgent},
			RatePerMinute: 20,
			MaxAttempts:   3,
			BackoffBase:   500 * time.Millisecond,
			Parallelism:   4,
		},
	}
}
