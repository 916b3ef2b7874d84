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
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/calc"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/mapper"
	"github.com/penny-vault/pvfin/quarterly"
	"github.com/penny-vault/pvfin/schema"
	"github.com/penny-vault/pvfin/statement"
	"github.com/penny-vault/pvfin/temporal"
	"github.com/penny-vault/pvfin/units"
	"github.com/rs/zerolog"
)

// Version identifies the normalization logic that produced a cached document
const Version = "1.4.0"

const component = "pipeline"

// Source provides company metadata and filing artifacts
type Source interface {
	ResolveCompany(ctx context.Context, ticker string) (*data.Company, error)
	FetchFiling(ctx context.Context, cik string, filing *data.Filing) (*data.FilingArtifacts, error)
}

type Config struct {
	TemporalTolerance   float64
	QuarterlyTolerance  float64
	MaxAnnualFilings    int
	MaxQuarterlyFilings int
}

// DefaultConfig returns the tolerances and filing limits used when nothing is configured
func DefaultConfig() Config {
	return Config{
		TemporalTolerance:   temporal.DefaultTolerance,
		QuarterlyTolerance:  quarterly.DefaultTolerance,
		MaxAnnualFilings:    6,
		MaxQuarterlyFilings: 16,
	}
}

// Pipeline turns the filings of a company into normalized, cached statements
type Pipeline struct {
	source Source
	store  *cache.Store
	schema *schema.Schema
	mapper *mapper.Mapper
	config Config
	now    func() time.Time
}

type Option func(*Pipeline)

// WithSchema replaces the default canonical schema
func WithSchema(s *schema.Schema) Option {
	return func(p *Pipeline) {
		p.schema = s
	}
}

// WithWeights replaces the default mapping weights
func WithWeights(w mapper.Weights) Option {
	return func(p *Pipeline) {
		p.mapper = mapper.New(w)
	}
}

// WithClock overrides the time source used for document timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline. store may be nil, in which case results are not persisted.
func New(source Source, store *cache.Store, config Config, opts ...Option) *Pipeline {
	defaults := DefaultConfig()
	if config.TemporalTolerance <= 0 {
		config.TemporalTolerance = defaults.TemporalTolerance
	}
	if config.QuarterlyTolerance <= 0 {
		config.QuarterlyTolerance = defaults.QuarterlyTolerance
	}
	if config.MaxAnnualFilings <= 0 {
		config.MaxAnnualFilings = defaults.MaxAnnualFilings
	}
	if config.MaxQuarterlyFilings <= 0 {
		config.MaxQuarterlyFilings = defaults.MaxQuarterlyFilings
	}

	p := &Pipeline{
		source: source,
		store:  store,
		schema: schema.Default(),
		mapper: mapper.New(mapper.DefaultWeights),
		config: config,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// FinancialsKey is the cache key of the document for ticker and periodicity
func FinancialsKey(ticker string, pt data.PeriodType) string {
	return cache.Key("financials", data.CanonicalTicker(ticker), string(pt))
}

// run holds the state accumulated while processing the filings of one company
type run struct {
	id        string
	company   *data.Company
	pt        data.PeriodType
	processed []*data.Filing
	canonical map[data.StatementType][]*data.CanonicalStatement
	tags      map[string]map[string]bool // canonical row name -> source tags
	graphs    []calc.Graph
}

// Run normalizes the financial statements of ticker and stores the result. A cancelled or
// failed run never writes the cache.
func (p *Pipeline) Run(ctx context.Context, ticker string, pt data.PeriodType) (*data.FinancialsDocument, error) {
	ticker = data.CanonicalTicker(ticker)
	r := &run{
		id:        uuid.NewString(),
		pt:        pt,
		canonical: make(map[data.StatementType][]*data.CanonicalStatement),
		tags:      make(map[string]map[string]bool),
	}

	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("PeriodType", string(pt)).Str("RunID", r.id).Logger()
	ctx = logger.WithContext(ctx)

	start := p.now()
	company, err := p.source.ResolveCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}
	r.company = company

	filings := company.FilingsFor(pt)
	limit := p.config.MaxAnnualFilings
	if pt == data.Quarterly {
		limit = p.config.MaxQuarterlyFilings
	}
	if len(filings) > limit {
		filings = filings[:limit]
	}

	if len(filings) == 0 {
		return nil, data.NewError(data.ErrNotFound, component, nil, "%s has no %s filings", ticker, pt)
	}

	detector := units.New(company.Facts)
	for _, filing := range filings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := p.processFiling(ctx, r, detector, filing); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := p.document(ctx, r, ticker)
	if !doc.Available() {
		return nil, data.NewError(data.ErrNotFound, component, nil, "no statements could be extracted from the %s filings of %s", pt, ticker)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.store.Put(ctx, cache.Financials, FinancialsKey(ticker, pt), doc); err != nil {
			return nil, err
		}
	}

	logger.Info().Int("NumFilings", len(r.processed)).Dur("Elapsed", p.now().Sub(start)).Msg("normalized financial statements")
	return doc, nil
}

// processFiling extracts and maps every statement of one filing. Malformed and missing
// filings are logged and skipped; other errors abort the run.
func (p *Pipeline) processFiling(ctx context.Context, r *run, detector *units.Detector, filing *data.Filing) error {
	logger := zerolog.Ctx(ctx).With().Object("Filing", filing).Logger()

	artifacts, err := p.source.FetchFiling(ctx, r.company.CIK, filing)
	if err != nil {
		if recoverable(err) {
			logger.Warn().Err(err).Msg("skipping filing")
			return nil
		}
		return err
	}

	graph, err := calc.Parse(artifacts.CalcXML)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring calculation linkbase")
		graph = calc.Graph{}
	}
	r.graphs = append(r.graphs, graph)

	found := false
	for _, st := range data.StatementTypes {
		raw, err := statement.Extract(artifacts.ReportHTML, st, r.pt)
		if err != nil {
			logger.Warn().Err(err).Str("StatementType", string(st)).Msg("could not extract statement")
			continue
		}

		if raw == nil {
			logger.Debug().Str("StatementType", string(st)).Msg("statement not present in filing")
			continue
		}

		raw.Filing = filing
		detector.Apply(raw)

		validator := temporal.New(r.canonical[st], p.config.TemporalTolerance)
		cs := p.mapper.Map(raw, p.schema.Concepts(st), graph, validator)
		p.refineUnits(cs)

		for _, name := range cs.Uncertain {
			err := data.NewError(data.ErrMappingUncertain, component, nil, "%s has more than one plausible source row", name)
			logger.Warn().Err(err).Str("StatementType", string(st)).Msg("ambiguous mapping")
		}

		for _, row := range cs.Rows {
			if r.tags[row.Name] == nil {
				r.tags[row.Name] = make(map[string]bool)
			}
			r.tags[row.Name][row.Source.Label] = true
		}

		r.canonical[st] = append(r.canonical[st], cs)
		found = true

		logger.Debug().Str("StatementType", string(st)).Int("NumMapped", len(cs.Rows)).
			Int("NumRaw", len(cs.RawView)).Msg("mapped statement")
	}

	if found {
		r.processed = append(r.processed, filing)
	}

	return nil
}

// refineUnits lets the mapped concept settle units detection could not verify and rescales
// the row when the unit changed
func (p *Pipeline) refineUnits(cs *data.CanonicalStatement) {
	for _, row := range cs.Rows {
		concept, ok := p.schema.Lookup(cs.Type, row.Name)
		if !ok {
			continue
		}

		refined := units.Refine(row.Unit, concept)
		if refined == row.Unit {
			continue
		}

		row.Unit = refined
		rescaled := &data.RawRow{
			Reported: row.Source.Reported,
			Values:   make([]float64, len(row.Source.Reported)),
		}
		units.Normalize(rescaled, refined)
		row.Values = rescaled.Values
	}
}

// recoverable reports whether a filing level error should be skipped rather than abort the run
func recoverable(err error) bool {
	switch data.KindOf(err) {
	case data.ErrMalformedFiling, data.ErrNotFound, data.ErrMappingUncertain:
		return true
	}
	return false
}
