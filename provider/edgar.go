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
	"time"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/pipeline"
	"github.com/rs/zerolog"
)

type Edgar struct{}

func (edgar *Edgar) Name() string {
	return "EDGAR"
}

func (edgar *Edgar) ConfigDescription() map[string]string {
	return map[string]string{
		"userAgent": "What User-Agent (name and email) should requests to the SEC carry?",
	}
}

func (edgar *Edgar) Description() string {
	return `EDGAR is the SEC's electronic filing system. Annual and quarterly reports are normalized onto a canonical income statement, balance sheet and cash flow statement.`
}

func (edgar *Edgar) Datasets() map[string]Dataset {
	return map[string]Dataset{
		"annual": {
			Name:        "Annual Financials",
			Description: "Normalized statements from 10-K and 20-F filings.",
			Namespace:   cache.Financials,
			Usage:       "<ticker...>",
			DateRange:   edgarDateRange,
			Fetch: func(ctx context.Context, env *Env, args []string) (*RunSummary, error) {
				return edgar.refresh(ctx, env, args, false)
			},
		},
		"quarterly": {
			Name:        "Quarterly Financials",
			Description: "Normalized statements from 10-Q filings with cumulative fourth quarters made discrete.",
			Namespace:   cache.Financials,
			Usage:       "<ticker...>",
			DateRange:   edgarDateRange,
			Fetch: func(ctx context.Context, env *Env, args []string) (*RunSummary, error) {
				return edgar.refresh(ctx, env, args, true)
			},
		},
	}
}

func edgarDateRange() (time.Time, time.Time) {
	// XBRL financial data is available from 2009
	return time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().UTC()
}

func (edgar *Edgar) refresh(ctx context.Context, env *Env, tickers []string, quarterly bool) (*RunSummary, error) {
	logger := zerolog.Ctx(ctx)

	name := "annual"
	if quarterly {
		name = "quarterly"
	}

	summary := newRunSummary(edgar, edgar.Datasets()[name])
	defer func() {
		summary.EndTime = time.Now()
	}()

	if len(tickers) == 0 {
		return summary, ErrNoArguments
	}

	for _, ticker := range tickers {
		ticker = data.CanonicalTicker(ticker)
		doc, err := env.Library.Refresh(ctx, ticker, quarterly)
		if err != nil {
			logger.Error().Err(err).Str("Ticker", ticker).Msg("could not normalize financial statements")
			summary.Failures[ticker] = err
			continue
		}

		summary.Keys = append(summary.Keys, pipeline.FinancialsKey(ticker, data.PeriodTypeFor(quarterly)))
		for _, stmt := range doc.Statements {
			summary.NumObservations += len(stmt.RowNames) * len(stmt.Columns)
		}
	}

	return summary, nil
}
