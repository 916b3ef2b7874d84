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
package pipeline_test

import (
	"context"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/pipeline"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx   context.Context
		store *cache.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = cache.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	annualSource := func() *fakeSource {
		source := newFakeSource("1231",
			filing("a1", "10-K", "2024-12-31"),
			filing("a2", "10-K", "2023-12-31"),
			filing("q1", "10-Q", "2024-09-30"),
		)

		source.artifacts["a1"] = annualIncome([]string{"2024-12-31", "2023-12-31", "2022-12-31"},
			[]float64{1000, 900, 800}, []float64{100, 90, -80}) +
			report(balanceTitle, "", []string{"2024-12-31", "2023-12-31"},
				line{tag: "us-gaap_Assets", label: "Total assets", total: true, values: []float64{5000, 4800}},
				line{tag: "acme_DeferredWidgets", label: "Deferred widgets", values: []float64{12, 11}},
			)
		source.artifacts["a2"] = annualIncome([]string{"2023-12-31", "2022-12-31", "2021-12-31"},
			[]float64{900, 800, 700}, []float64{90, -80, 70})

		return source
	}

	It("normalizes and caches annual statements from several filings", func() {
		source := annualSource()
		doc, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "acme", data.Annual)
		Expect(err).NotTo(HaveOccurred())

		Expect(doc.Ticker).To(Equal("ACME"))
		Expect(doc.PeriodType).To(Equal(data.Annual))
		Expect(doc.Metadata.CIK).To(Equal("1234567"))
		Expect(doc.Metadata.PipelineVersion).To(Equal(pipeline.Version))
		Expect(doc.Metadata.Filings).To(HaveLen(2))
		Expect(doc.Metadata.QuarterlyAdjusted).To(BeFalse())
		Expect(doc.Metadata.ExpiresAt.Sub(doc.Metadata.CreatedAt)).To(Equal(store.TTL(cache.Financials)))
		Expect(source.fetched).To(Equal([]string{"a1", "a2"}))

		income := doc.Statements[data.IncomeStatement]
		Expect(income.Available).To(BeTrue())
		Expect(income.Columns).To(Equal([]string{"2024-12-31", "2023-12-31", "2022-12-31", "2021-12-31"}))
		Expect(income.RowNames).To(Equal([]string{"Total revenue", "Net income"}))

		v, ok := income.Value("Total revenue", "2021-12-31")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(700e6))

		v, ok = income.Value("Net income", "2022-12-31")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(-80e6))

		balance := doc.Statements[data.BalanceSheet]
		Expect(balance.Available).To(BeTrue())
		Expect(balance.RowNames).To(Equal([]string{"Total assets"}))
		Expect(balance.RawRowNames).To(Equal([]string{"Deferred widgets [2024-12-31]"}))

		Expect(doc.Statements[data.CashFlow].Available).To(BeFalse())

		var cached data.FinancialsDocument
		hit, err := store.Get(ctx, cache.Financials, pipeline.FinancialsKey("ACME", data.Annual), &cached)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeTrue())
		Expect(cached.Statements[data.IncomeStatement].Columns).To(Equal(income.Columns))
		Expect(data.IsMissing(cached.Statements[data.IncomeStatement].Data[0][3])).To(BeFalse())
	})

	It("produces identical matrices when run twice on the same filings", func() {
		matrices := func(doc *data.FinancialsDocument) string {
			var out []data.Matrix
			for _, st := range data.StatementTypes {
				out = append(out, doc.Statements[st].Data, doc.Statements[st].RawData)
			}
			body, err := json.Marshal(out)
			Expect(err).NotTo(HaveOccurred())
			return string(body)
		}

		first, err := pipeline.New(annualSource(), store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(err).NotTo(HaveOccurred())
		second, err := pipeline.New(annualSource(), store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(err).NotTo(HaveOccurred())

		Expect(matrices(second)).To(Equal(matrices(first)))
		Expect(second.Statements[data.BalanceSheet].RawRowNames).To(Equal(first.Statements[data.BalanceSheet].RawRowNames))
	})

	It("corrects a cumulative fourth quarter", func() {
		source := newFakeSource("1231",
			filing("q4", "10-Q", "2024-12-31"),
			filing("q3", "10-Q", "2024-09-30"),
			filing("q2", "10-Q", "2024-06-30"),
			filing("q1", "10-Q", "2024-03-31"),
		)
		source.artifacts["q4"] = quarterlyIncome("2024-12-31", 450)
		source.artifacts["q3"] = quarterlyIncome("2024-09-30", 110)
		source.artifacts["q2"] = quarterlyIncome("2024-06-30", 120)
		source.artifacts["q1"] = quarterlyIncome("2024-03-31", 100)

		doc, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Quarterly)
		Expect(err).NotTo(HaveOccurred())

		income := doc.Statements[data.IncomeStatement]
		Expect(income.Columns).To(Equal([]string{"2024-12-31", "2024-09-30", "2024-06-30", "2024-03-31"}))
		Expect(income.Data[0]).To(Equal([]float64{120e6, 110e6, 120e6, 100e6}))

		Expect(doc.Metadata.QuarterlyAdjusted).To(BeTrue())
		Expect(doc.Metadata.AdjustmentsApplied).To(HaveLen(1))
		adjustment := doc.Metadata.AdjustmentsApplied[0]
		Expect(adjustment.Date).To(Equal("2024-12-31"))
		Expect(adjustment.Applied).To(BeTrue())
		Expect(adjustment.Original).To(Equal(450e6))
	})

	It("skips malformed filings", func() {
		source := annualSource()
		source.errs["a2"] = data.NewError(data.ErrMalformedFiling, "edgar", nil, "no statements")

		doc, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Metadata.Filings).To(HaveLen(1))
		Expect(doc.Statements[data.IncomeStatement].Columns).To(HaveLen(3))
	})

	It("limits the number of filings processed", func() {
		source := annualSource()
		config := pipeline.DefaultConfig()
		config.MaxAnnualFilings = 1

		_, err := pipeline.New(source, nil, config).Run(ctx, "ACME", data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(source.fetched).To(Equal([]string{"a1"}))
	})

	It("aborts without writing the cache when EDGAR is unavailable", func() {
		source := annualSource()
		source.errs["a2"] = data.NewError(data.ErrUpstreamUnavailable, "edgar", nil, "throttled")

		_, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(data.KindOf(err)).To(Equal(data.ErrUpstreamUnavailable))
		Expect(store.Exists(cache.Financials, pipeline.FinancialsKey("ACME", data.Annual))).To(BeFalse())
	})

	It("does not write the cache when cancelled mid run", func() {
		source := annualSource()
		cancellable, cancel := context.WithCancel(ctx)
		defer cancel()
		source.onFetch = func(accession string) {
			if accession == "a1" {
				cancel()
			}
		}

		_, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(cancellable, "ACME", data.Annual)
		Expect(err).To(MatchError(context.Canceled))
		Expect(source.fetched).To(Equal([]string{"a1"}))
		Expect(store.Exists(cache.Financials, pipeline.FinancialsKey("ACME", data.Annual))).To(BeFalse())
	})

	It("reports a company without filings of the requested family as not found", func() {
		source := newFakeSource("1231", filing("q1", "10-Q", "2024-09-30"))

		_, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(data.KindOf(err)).To(Equal(data.ErrNotFound))
	})

	It("reports a run without any extractable statement as not found and caches nothing", func() {
		source := annualSource()
		source.artifacts["a1"] = "<html><body><p>no tables here</p></body></html>"
		source.artifacts["a2"] = "<html></html>"

		_, err := pipeline.New(source, store, pipeline.DefaultConfig()).Run(ctx, "ACME", data.Annual)
		Expect(data.KindOf(err)).To(Equal(data.ErrNotFound))
		Expect(store.Exists(cache.Financials, pipeline.FinancialsKey("ACME", data.Annual))).To(BeFalse())
	})

	It("propagates unknown tickers", func() {
		_, err := pipeline.New(annualSource(), store, pipeline.DefaultConfig()).Run(ctx, "NOPE", data.Annual)
		Expect(data.KindOf(err)).To(Equal(data.ErrNotFound))
	})

	It("builds cache keys from the canonical ticker", func() {
		Expect(pipeline.FinancialsKey("brk.b", data.Quarterly)).To(Equal("financials_BRK-B_quarterly"))
	})
})
