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
package cache_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/data"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		root  string
		now   time.Time
		store *cache.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		root = GinkgoT().TempDir()
		now = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

		var err error
		store, err = cache.New(root,
			cache.WithClock(func() time.Time { return now }),
			cache.WithRetryDelay(time.Millisecond),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates a directory per namespace", func() {
		for _, ns := range cache.Namespaces {
			info, err := os.Stat(filepath.Join(root, string(ns)))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		}
	})

	It("round trips an entry with its sidecar", func() {
		key := cache.Key("quote", "AAPL")
		Expect(store.Put(ctx, cache.Stock, key, &quote{Symbol: "AAPL", Price: 227.5})).To(Succeed())
		Expect(store.Exists(cache.Stock, key)).To(BeTrue())

		var q quote
		hit, err := store.Get(ctx, cache.Stock, key, &q)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeTrue())
		Expect(q.Price).To(Equal(227.5))

		meta, err := store.Meta(cache.Stock, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Key).To(Equal(key))
		Expect(meta.FormatVersion).To(Equal(cache.FormatVersion))
		Expect(meta.ExpiresAt).To(BeTemporally("==", now.Add(time.Hour)))
		Expect(meta.Checksum).To(HaveLen(64))
	})

	It("reports a missing entry as a miss", func() {
		var q quote
		hit, err := store.Get(ctx, cache.Stock, "nothing", &q)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeFalse())
	})

	It("expires financials after seven days", func() {
		key := cache.Key("financials", "AAPL", data.Annual)
		Expect(store.Put(ctx, cache.Financials, key, &quote{Symbol: "AAPL", Price: 1})).To(Succeed())

		now = now.Add(6 * 24 * time.Hour)
		Expect(store.Exists(cache.Financials, key)).To(BeTrue())

		now = now.Add(2 * 24 * time.Hour)
		Expect(store.Exists(cache.Financials, key)).To(BeFalse())

		var q quote
		hit, err := store.Get(ctx, cache.Financials, key, &q)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeFalse())

		_, err = os.Stat(filepath.Join(root, string(cache.Financials), key+".json"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("treats a checksum mismatch as a miss and removes the entry", func() {
		key := "quote_MSFT"
		Expect(store.Put(ctx, cache.Stock, key, &quote{Symbol: "MSFT", Price: 410})).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, string(cache.Stock), key+".json"), []byte(`{"symbol":"MSFT","price":1}`), 0o644)).To(Succeed())

		var q quote
		hit, err := store.Get(ctx, cache.Stock, key, &q)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeFalse())
		Expect(store.Exists(cache.Stock, key)).To(BeFalse())
	})

	It("treats an entry without a sidecar as corrupt", func() {
		key := "quote_NVDA"
		Expect(store.Put(ctx, cache.Stock, key, &quote{Symbol: "NVDA", Price: 140})).To(Succeed())
		Expect(os.Remove(filepath.Join(root, string(cache.Stock), key+".meta.toml"))).To(Succeed())

		var q quote
		hit, err := store.Get(ctx, cache.Stock, key, &q)
		Expect(err).NotTo(HaveOccurred())
		Expect(hit).To(BeFalse())

		_, err = os.Stat(filepath.Join(root, string(cache.Stock), key+".json"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	DescribeTable("rejects values that should never be cached",
		func(value any) {
			Expect(store.Put(ctx, cache.Macro, "bad", value)).To(MatchError(data.ErrInvalidValue))
			Expect(store.Exists(cache.Macro, "bad")).To(BeFalse())
		},
		Entry("nil", nil),
		Entry("blank string", "  "),
		Entry("NaN", math.NaN()),
		Entry("infinity", math.Inf(-1)),
		Entry("empty map", map[string]int{}),
		Entry("empty slice", []int{}),
		Entry("unavailable document", &data.FinancialsDocument{Ticker: "AAPL"}),
	)

	It("does not write when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Expect(store.Put(cancelled, cache.Stock, "quote_AMZN", &quote{Symbol: "AMZN", Price: 200})).NotTo(Succeed())
		Expect(store.Exists(cache.Stock, "quote_AMZN")).To(BeFalse())
	})

	It("lists fresh entries and purges expired ones", func() {
		Expect(store.Put(ctx, cache.Macro, "fred_DGS10", &quote{Symbol: "DGS10", Price: 4.2})).To(Succeed())
		Expect(store.Put(ctx, cache.Stock, "quote_B", &quote{Symbol: "B", Price: 2})).To(Succeed())
		Expect(store.Put(ctx, cache.Stock, "quote_A", &quote{Symbol: "A", Price: 1})).To(Succeed())

		list, err := store.List(cache.Stock)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0].Key).To(Equal("quote_A"))

		now = now.Add(2 * time.Hour)
		list, err = store.List(cache.Stock)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())

		removed, err := store.Purge(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(2))
		Expect(store.Exists(cache.Macro, "fred_DGS10")).To(BeTrue())
	})

	It("honors per namespace TTL overrides", func() {
		custom, err := cache.New(root, cache.WithTTL(cache.Stock, time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(custom.TTL(cache.Stock)).To(Equal(time.Minute))
		Expect(custom.TTL(cache.Financials)).To(Equal(7 * 24 * time.Hour))
	})

	DescribeTable("Key",
		func(parts []any, expected string) {
			Expect(cache.Key(parts...)).To(Equal(expected))
		},
		Entry("simple", []any{"historical", "AAPL", "1y"}, "historical_AAPL_1y"),
		Entry("bools", []any{"financials", "BRK-B", true}, "financials_BRK-B_True"),
		Entry("unsafe characters", []any{"news", "a/b c"}, "news_a-b-c"),
		Entry("empty parts are dropped", []any{"x", "", "y"}, "x_y"),
		Entry("transliterated", []any{"news", "Société Générale"}, "news_Societe-Generale"),
	)

	It("parses namespaces case insensitively", func() {
		ns, err := cache.ParseNamespace("FINANCIALS")
		Expect(err).NotTo(HaveOccurred())
		Expect(ns).To(Equal(cache.Financials))

		_, err = cache.ParseNamespace("weather")
		Expect(err).To(HaveOccurred())
	})
})
