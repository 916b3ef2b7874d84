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
package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvfin/cache"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const fredBaseURL = "https://api.stlouisfed.org"

type Fred struct {
	BaseURL string
}

func (fred *Fred) Name() string {
	return "FRED"
}

func (fred *Fred) ConfigDescription() map[string]string {
	return map[string]string{
		"seriesIds": "Enter all series to retrieve from FRED (e.g. UNRATE, DTB3):",
		"apiKey":    "What is your FRED api key?",
	}
}

func (fred *Fred) Description() string {
	return `The Financial Reserve Economic Data (FRED) provides access over 800,000 economic indicators`
}

func (fred *Fred) Datasets() map[string]Dataset {
	return map[string]Dataset{
		"indicators": {
			Name:        "Economic Indicators",
			Description: "Download economic indicators into the Macro cache namespace.",
			Namespace:   cache.Macro,
			Usage:       "[series-id...]",
			DateRange: func() (time.Time, time.Time) {
				return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().UTC()
			},
			Fetch: fred.downloadAllIndicators,
		},
	}
}

// Indicator is the cached form of a FRED series
type Indicator struct {
	Series       string                 `json:"series"`
	Units        string                 `json:"units"`
	Observations []IndicatorObservation `json:"observations"`
}

type IndicatorObservation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// IndicatorKey is the cache key of a FRED series
func IndicatorKey(series string) string {
	return cache.Key("fred", strings.ToUpper(series))
}

func (fred *Fred) downloadAllIndicators(ctx context.Context, env *Env, args []string) (*RunSummary, error) {
	logger := zerolog.Ctx(ctx)
	summary := newRunSummary(fred, fred.Datasets()["indicators"])
	defer func() {
		summary.EndTime = time.Now()
	}()

	seriesIds := args
	if len(seriesIds) == 0 && env.Config["seriesIds"] != "" {
		seriesIds = strings.Split(env.Config["seriesIds"], ",")
	}

	if len(seriesIds) == 0 {
		return summary, ErrNoArguments
	}

	baseURL := fred.BaseURL
	if baseURL == "" {
		baseURL = fredBaseURL
	}

	client := resty.New().SetQueryParam("api_key", env.Config["apiKey"])
	for _, seriesId := range seriesIds {
		seriesId = strings.ToUpper(strings.TrimSpace(seriesId))
		if seriesId == "" {
			continue
		}

		indicator, err := downloadIndicator(ctx, client, baseURL, seriesId)
		if err != nil {
			logger.Error().Err(err).Str("Series", seriesId).Msg("downloading economic indicator failed")
			summary.Failures[seriesId] = err
			continue
		}

		if len(indicator.Observations) == 0 {
			logger.Warn().Str("Series", seriesId).Msg("series has no observations")
			continue
		}

		key := IndicatorKey(seriesId)
		if err := env.Store.Put(ctx, cache.Macro, key, indicator); err != nil {
			summary.Failures[seriesId] = err
			continue
		}

		summary.Keys = append(summary.Keys, key)
		summary.NumObservations += len(indicator.Observations)
	}

	return summary, nil
}

func downloadIndicator(ctx context.Context, client *resty.Client, baseURL, seriesId string) (*Indicator, error) {
	logger := zerolog.Ctx(ctx)

	var resp fredResponse
	req, err := client.R().
		SetContext(ctx).
		SetQueryParam("file_type", "json").
		SetQueryParam("series_id", seriesId).
		SetQueryParam("sort_order", "desc").
		SetResult(&resp).Get(baseURL + "/fred/series/observations")

	if err != nil {
		return nil, err
	}

	if req.StatusCode() >= 300 {
		if msg := gjson.Get(req.String(), "error_message").String(); msg != "" {
			return nil, fmt.Errorf("FRED returned status code %d: %s", req.StatusCode(), msg)
		}
		return nil, fmt.Errorf("FRED returned status code %d", req.StatusCode())
	}

	indicator := &Indicator{
		Series: seriesId,
		Units:  resp.Units,
	}

	for _, obs := range resp.Observations {
		if _, err := time.Parse("2006-01-02", obs.Date); err != nil {
			logger.Error().Err(err).Str("DateStr", obs.Date).Msg("parsing observation date failed")
			continue
		}

		if obs.Value == "." {
			// no observation
			continue
		}

		val, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			logger.Error().Err(err).Str("ValueStr", obs.Value).Msg("parsing observation value failed")
			continue
		}

		indicator.Observations = append(indicator.Observations, IndicatorObservation{
			Date:  obs.Date,
			Value: val,
		})
	}

	return indicator, nil
}

type fredResponse struct {
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	Units            string            `json:"units"`
	Count            int               `json:"count"`
	Observations     []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}
