// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/edgar"
	"github.com/penny-vault/pvfin/pipeline"
	"github.com/spf13/viper"
)

var (
	ErrInvalidSetting = errors.New("invalid configuration setting")
)

// Config is the resolved configuration handed to constructors
type Config struct {
	LibraryName       string
	CacheRoot         string
	CacheTTL          map[cache.Namespace]time.Duration
	Pipeline          pipeline.Config
	Edgar             edgar.Config
	FredAPIKey        string
	FredSeries        string
	HealthcheckPingID string
}

// DefaultCacheRoot is where the cache lives when cache.root is not set
func DefaultCacheRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pvfin")
}

func ttlKey(ns cache.Namespace) string {
	return "cache.ttl_hours." + strings.ToLower(string(ns))
}

// SetDefaults registers the default of every setting
func SetDefaults(v *viper.Viper) {
	pipelineDefaults := pipeline.DefaultConfig()
	edgarDefaults := edgar.DefaultConfig()

	v.SetDefault("library.name", "pvfin")
	v.SetDefault("cache.root", DefaultCacheRoot())
	for ns, ttl := range cache.DefaultTTL {
		v.SetDefault(ttlKey(ns), ttl.Hours())
	}

	v.SetDefault("pipeline.temporal_tolerance", pipelineDefaults.TemporalTolerance)
	v.SetDefault("pipeline.quarterly_cumulative_tolerance", pipelineDefaults.QuarterlyTolerance)
	v.SetDefault("pipeline.max_annual_filings", pipelineDefaults.MaxAnnualFilings)
	v.SetDefault("pipeline.max_quarterly_filings", pipelineDefaults.MaxQuarterlyFilings)

	v.SetDefault("edgar.user_agent", edgarDefaults.UserAgent)
	v.SetDefault("edgar.rate_limit_retries", edgarDefaults.Retries)
	v.SetDefault("edgar.rate_limit_initial_delay_seconds", edgarDefaults.InitialDelay.Seconds())
	v.SetDefault("edgar.requests_per_second", edgarDefaults.RequestsPerSecond)
	v.SetDefault("edgar.timeout_seconds", edgarDefaults.Timeout.Seconds())
	v.SetDefault("edgar.www_base_url", edgarDefaults.WWWBaseURL)
	v.SetDefault("edgar.data_base_url", edgarDefaults.DataBaseURL)

	v.SetDefault("fred.api_key", "")
	v.SetDefault("fred.series_ids", "")
	v.SetDefault("healthchecks.ping_id", "")
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Load resolves the configuration from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	conf := &Config{
		LibraryName: v.GetString("library.name"),
		CacheRoot:   v.GetString("cache.root"),
		CacheTTL:    make(map[cache.Namespace]time.Duration, len(cache.Namespaces)),
		Pipeline: pipeline.Config{
			TemporalTolerance:   v.GetFloat64("pipeline.temporal_tolerance"),
			QuarterlyTolerance:  v.GetFloat64("pipeline.quarterly_cumulative_tolerance"),
			MaxAnnualFilings:    v.GetInt("pipeline.max_annual_filings"),
			MaxQuarterlyFilings: v.GetInt("pipeline.max_quarterly_filings"),
		},
		Edgar: edgar.Config{
			UserAgent:         v.GetString("edgar.user_agent"),
			Retries:           v.GetInt("edgar.rate_limit_retries"),
			InitialDelay:      seconds(v.GetFloat64("edgar.rate_limit_initial_delay_seconds")),
			RequestsPerSecond: v.GetFloat64("edgar.requests_per_second"),
			Timeout:           seconds(v.GetFloat64("edgar.timeout_seconds")),
			WWWBaseURL:        v.GetString("edgar.www_base_url"),
			DataBaseURL:       v.GetString("edgar.data_base_url"),
		},
		FredAPIKey:        v.GetString("fred.api_key"),
		FredSeries:        v.GetString("fred.series_ids"),
		HealthcheckPingID: v.GetString("healthchecks.ping_id"),
	}

	for _, ns := range cache.Namespaces {
		hours := v.GetFloat64(ttlKey(ns))
		if hours <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, ttlKey(ns))
		}
		conf.CacheTTL[ns] = time.Duration(hours * float64(time.Hour))
	}

	if conf.CacheRoot == "" {
		return nil, fmt.Errorf("%w: cache.root is empty", ErrInvalidSetting)
	}

	if tol := conf.Pipeline.TemporalTolerance; tol <= 0 || tol >= 1 {
		return nil, fmt.Errorf("%w: pipeline.temporal_tolerance must be between 0 and 1", ErrInvalidSetting)
	}

	if tol := conf.Pipeline.QuarterlyTolerance; tol <= 0 || tol >= 1 {
		return nil, fmt.Errorf("%w: pipeline.quarterly_cumulative_tolerance must be between 0 and 1", ErrInvalidSetting)
	}

	if conf.Edgar.Retries < 0 {
		return nil, fmt.Errorf("%w: edgar.rate_limit_retries cannot be negative", ErrInvalidSetting)
	}

	if strings.TrimSpace(conf.Edgar.UserAgent) == "" {
		return nil, fmt.Errorf("%w: edgar.user_agent is required by the SEC", ErrInvalidSetting)
	}

	return conf, nil
}

// StoreOptions converts the TTL settings into cache options
func (conf *Config) StoreOptions() []cache.Option {
	opts := make([]cache.Option, 0, len(conf.CacheTTL))
	for ns, ttl := range conf.CacheTTL {
		opts = append(opts, cache.WithTTL(ns, ttl))
	}
	return opts
}

// File is the subset of settings written by pvfin init
type File struct {
	Library struct {
		Name string `toml:"name"`
	} `toml:"library"`
	Cache struct {
		Root string `toml:"root"`
	} `toml:"cache"`
	Edgar struct {
		UserAgent string `toml:"user_agent"`
	} `toml:"edgar"`
	Fred struct {
		APIKey string `toml:"api_key,omitempty"`
	} `toml:"fred"`
	Healthchecks struct {
		PingID string `toml:"ping_id,omitempty"`
	} `toml:"healthchecks"`
}
