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
package library

import (
	"context"
	"sort"
	"strings"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/pipeline"
	"github.com/penny-vault/pvfin/quarterly"
	"github.com/rs/zerolog"
)

// Runner produces a fresh financials document, normally a *pipeline.Pipeline
type Runner interface {
	Run(ctx context.Context, ticker string, pt data.PeriodType) (*data.FinancialsDocument, error)
}

// Library is the consumer facing view of the normalized statements
type Library struct {
	Name string

	store              *cache.Store
	runner             Runner
	quarterlyTolerance float64
}

// New creates a library reading from store and falling back to runner on a miss
func New(name string, store *cache.Store, runner Runner, quarterlyTolerance float64) *Library {
	return &Library{
		Name:               name,
		store:              store,
		runner:             runner,
		quarterlyTolerance: quarterlyTolerance,
	}
}

// Store returns the cache backing the library
func (myLibrary *Library) Store() *cache.Store {
	return myLibrary.store
}

// ListTickers returns every ticker with a fresh financials document on disk
func (myLibrary *Library) ListTickers() ([]string, error) {
	entries, err := myLibrary.store.List(cache.Financials)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	tickers := []string{}
	for _, entry := range entries {
		ticker, _, ok := parseFinancialsKey(entry.Key)
		if !ok || seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}

	sort.Strings(tickers)
	return tickers, nil
}

// parseFinancialsKey splits financials_<TICKER>_<periodicity>
func parseFinancialsKey(key string) (string, data.PeriodType, bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 || parts[0] != "financials" {
		return "", "", false
	}

	pt := data.PeriodType(parts[2])
	if pt != data.Annual && pt != data.Quarterly {
		return "", "", false
	}

	return parts[1], pt, true
}

// IsCached reports whether a fresh document exists for ticker
func (myLibrary *Library) IsCached(ticker string, quarterly bool) bool {
	return myLibrary.store.Exists(cache.Financials, pipeline.FinancialsKey(ticker, data.PeriodTypeFor(quarterly)))
}

// LoadFromCache returns the cached document for ticker. A miss is reported as ok == false.
func (myLibrary *Library) LoadFromCache(ctx context.Context, ticker string, quarterly bool) (*data.FinancialsDocument, bool, error) {
	doc := &data.FinancialsDocument{}
	hit, err := myLibrary.store.Get(ctx, cache.Financials, pipeline.FinancialsKey(ticker, data.PeriodTypeFor(quarterly)), doc)
	if err != nil || !hit {
		return nil, false, err
	}

	return doc, true, nil
}

// Invalidate removes the cached document for ticker
func (myLibrary *Library) Invalidate(ticker string, quarterly bool) error {
	return myLibrary.store.Delete(cache.Financials, pipeline.FinancialsKey(ticker, data.PeriodTypeFor(quarterly)))
}

// GetFinancials returns the document for ticker from the cache, running the pipeline on a miss
func (myLibrary *Library) GetFinancials(ctx context.Context, ticker string, quarterly bool) (*data.FinancialsDocument, error) {
	logger := zerolog.Ctx(ctx)
	ticker = data.CanonicalTicker(ticker)

	doc, hit, err := myLibrary.LoadFromCache(ctx, ticker, quarterly)
	if err != nil {
		return nil, err
	}

	if hit {
		logger.Debug().Str("Ticker", ticker).Bool("Quarterly", quarterly).Msg("cache hit")
		if err := myLibrary.adjustOnRead(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if myLibrary.runner == nil {
		return nil, data.NewError(data.ErrNotFound, "library", nil, "%s is not cached", ticker)
	}

	return myLibrary.runner.Run(ctx, ticker, data.PeriodTypeFor(quarterly))
}

// Refresh runs the pipeline regardless of what is cached. The cached document is replaced
// only when the run succeeds.
func (myLibrary *Library) Refresh(ctx context.Context, ticker string, quarterly bool) (*data.FinancialsDocument, error) {
	ticker = data.CanonicalTicker(ticker)
	if myLibrary.runner == nil {
		return nil, data.NewError(data.ErrNotFound, "library", nil, "cannot refresh %s without a pipeline", ticker)
	}
	return myLibrary.runner.Run(ctx, ticker, data.PeriodTypeFor(quarterly))
}

// GetStatement returns a single statement of the document for ticker. Statements that could
// not be extracted are returned with Available set to false.
func (myLibrary *Library) GetStatement(ctx context.Context, ticker string, st data.StatementType, quarterly bool) (*data.StatementDocument, error) {
	doc, err := myLibrary.GetFinancials(ctx, ticker, quarterly)
	if err != nil {
		return nil, err
	}

	if stmt, ok := doc.Statements[st]; ok && stmt != nil {
		return stmt, nil
	}

	return data.NewStatementDocument(nil), nil
}

// adjustOnRead applies the quarterly adjustment to documents persisted without it
func (myLibrary *Library) adjustOnRead(ctx context.Context, doc *data.FinancialsDocument) error {
	if doc.PeriodType != data.Quarterly || doc.Metadata.QuarterlyAdjusted {
		return nil
	}

	adjuster := quarterly.New(myLibrary.quarterlyTolerance, doc.Metadata.FiscalYearEnd)
	for _, st := range data.StatementTypes {
		stmt, ok := doc.Statements[st]
		if !ok || stmt == nil || !stmt.Available {
			continue
		}

		ms, err := stmt.Merged(st)
		if err != nil {
			return err
		}

		adjustments := adjuster.Adjust(ms)
		if len(adjustments) == 0 {
			continue
		}

		adjusted := data.NewStatementDocument(ms)
		adjusted.RawUnits = stmt.RawUnits
		adjusted.Units = stmt.Units
		doc.Statements[st] = adjusted
		doc.Metadata.AdjustmentsApplied = append(doc.Metadata.AdjustmentsApplied, adjustments...)
	}

	doc.Metadata.QuarterlyAdjusted = true
	zerolog.Ctx(ctx).Debug().Str("Ticker", doc.Ticker).Int("NumAdjustments", len(doc.Metadata.AdjustmentsApplied)).Msg("adjusted quarterly document on read")
	return nil
}
