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
package pipeline

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/merge"
	"github.com/penny-vault/pvfin/quarterly"
	"github.com/penny-vault/pvfin/schema"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	annualDays  = 365
	annualSlack = 20
)

// document merges the mapped statements of a run into the cached document form
func (p *Pipeline) document(ctx context.Context, r *run, ticker string) *data.FinancialsDocument {
	logger := zerolog.Ctx(ctx)
	now := p.now().UTC()

	ttl := cache.DefaultTTL[cache.Financials]
	if p.store != nil {
		ttl = p.store.TTL(cache.Financials)
	}

	doc := &data.FinancialsDocument{
		Ticker:     ticker,
		PeriodType: r.pt,
		CachedAt:   now,
		Metadata: data.DocumentMetadata{
			CreatedAt:          now,
			ExpiresAt:          now.Add(ttl),
			PipelineVersion:    Version,
			SchemaVersion:      schema.Version,
			RunID:              r.id,
			CIK:                r.company.CIK,
			CompanyName:        r.company.Name,
			FiscalYearEnd:      r.company.FiscalYearEnd,
			Filings:            r.processed,
			AdjustmentsApplied: []data.Adjustment{},
			QuarterlyAdjusted:  r.pt == data.Quarterly,
		},
		Statements: make(map[data.StatementType]*data.StatementDocument, len(data.StatementTypes)),
	}

	var adjuster *quarterly.Adjuster
	if r.pt == data.Quarterly {
		adjuster = quarterly.New(p.config.QuarterlyTolerance, r.company.FiscalYearEnd,
			quarterly.WithAnnualReference(r.annualReference),
			quarterly.WithAggregates(r.aggregates))
	}

	for _, st := range data.StatementTypes {
		ms := merge.Merge(r.canonical[st], st)
		if adjuster != nil {
			for _, adj := range adjuster.Adjust(ms) {
				if !adj.Applied {
					logger.Warn().Str("StatementType", string(st)).Str("Row", adj.Row).Str("Date", adj.Date).
						Msg(adj.Reason)
				}
				doc.Metadata.AdjustmentsApplied = append(doc.Metadata.AdjustmentsApplied, adj)
			}
		}

		doc.Statements[st] = data.NewStatementDocument(ms)
	}

	return doc
}

// annualReference returns the issuer reported full year value of a canonical row from the
// company facts of any tag the row was mapped from
func (r *run) annualReference(row string, end time.Time) (float64, bool) {
	if r.company.Facts == nil {
		return 0, false
	}

	// tags are tried in name order so repeated runs pick the same reference
	tags := lo.Keys(r.tags[row])
	sort.Strings(tags)

	for _, tag := range tags {
		for _, fact := range r.company.Facts.Lookup(tag, end, annualDays, annualSlack) {
			if math.IsNaN(fact.Value) {
				continue
			}
			return fact.Value, true
		}
	}

	return 0, false
}

// aggregates reports whether every tag a row was mapped from sums across periods
func (r *run) aggregates(row string) bool {
	for tag := range r.tags[row] {
		for _, graph := range r.graphs {
			if !graph.AggregatesPeriods(tag) {
				return false
			}
		}
	}
	return true
}
