// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trendsift CLI, a thin harness
// over the aggregation and enrichment pipeline. One invocation of the
// search command is one aggregation pass.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trendsift/internal/secrets"
	"github.com/pdiddy/trendsift/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the trendsift CLI.
var rootCmd = &cobra.Command{
	Use:   "trendsift",
	Short: "Aggregate one query across trends, web, scholar, and neural search",
	Long: `trendsift fans a single research query out to heterogeneous search
providers (Google Trends, Serper web and scholar search, Exa neural search),
normalizes their responses into one result model, and can pull full page
content for a selected subset of results through a rate-limited second-stage
fetch.

Provider calls are cached for an hour, so repeating a query is cheap; a new
query supersedes the previous pass entirely.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trendsift.yaml or ~/.config/trendsift/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trendsift")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trendsift"))
		}
	}

	viper.SetEnvPrefix("TRENDSIFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig builds the stage configuration from defaults, the config
// file, and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if d := viper.GetDuration("cache.ttl"); d > 0 {
		cfg.Cache.TTL = d
	}
	if d := viper.GetDuration("http.timeout"); d > 0 {
		cfg.Trends.Timeout = d
		cfg.Serper.Timeout = d
		cfg.Exa.Timeout = d
	}
	if n := viper.GetInt("serper.max_results"); n > 0 {
		cfg.Serper.MaxResults = n
	}
	if n := viper.GetInt("exa.max_results"); n > 0 {
		cfg.Exa.MaxResults = n
	}
	if n := viper.GetInt("enrich.rate_per_minute"); n > 0 {
		cfg.Enrich.RatePerMinute = n
	}
	if n := viper.GetInt("enrich.parallelism"); n > 0 {
		cfg.Enrich.Parallelism = n
	}
	if d := viper.GetDuration("enrich.timeout"); d > 0 {
		cfg.Enrich.Timeout = d
	}

	cfg.Trends.APIKey = secretDefault("serpapi-api-key", viper.GetString("trends.api_key"))
	cfg.Serper.APIKey = secretDefault("serper-api-key", viper.GetString("serper.api_key"))
	cfg.Exa.APIKey = secretDefault("exa-api-key", viper.GetString("exa.api_key"))

	return cfg
}

// httpClient returns a client with the stage timeout applied.
func httpClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
