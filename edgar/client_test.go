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
package edgar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/edgar"
)

const tickersJSON = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 1067983, "ticker": "BRK.B", "title": "BERKSHIRE HATHAWAY INC"}
}`

func testClient(url string, retries int) *edgar.Client {
	return edgar.New(edgar.Config{
		UserAgent:         "pvfin-test test@example.com",
		Retries:           retries,
		InitialDelay:      time.Millisecond,
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
		WWWBaseURL:        url,
		DataBaseURL:       url,
	})
}

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		calls   atomic.Int32
		handler http.HandlerFunc
		lastUA  atomic.Value
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tickersJSON))
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			lastUA.Store(r.Header.Get("User-Agent"))
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	It("loads the ticker directory with the configured user agent", func() {
		client := testClient(server.URL, 0)

		tickers, err := client.Tickers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(HaveLen(2))
		Expect(tickers[0].Ticker).To(Equal("AAPL"))
		Expect(tickers[0].CIK).To(Equal("320193"))
		Expect(lastUA.Load()).To(Equal("pvfin-test test@example.com"))

		entry, err := client.Lookup(ctx, "brk.b")
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.Ticker).To(Equal("BRK-B"))
		Expect(entry.Name).To(Equal("BERKSHIRE HATHAWAY INC"))

		// the directory is fetched once per client
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("keeps the earliest listing of a ticker shared by two companies", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
  "10": {"cik_str": 999, "ticker": "ACME", "title": "Acme Holdings Warrants"},
  "2": {"cik_str": 1234567, "ticker": "ACME", "title": "Acme Corp"},
  "11": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}
}`))
		}

		entry, err := testClient(server.URL, 0).Lookup(ctx, "ACME")
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.CIK).To(Equal("1234567"))
		Expect(entry.Name).To(Equal("Acme Corp"))
	})

	It("reports unknown tickers as not found", func() {
		_, err := testClient(server.URL, 0).Lookup(ctx, "ZZZZ")
		Expect(data.KindOf(err)).To(Equal(data.ErrNotFound))
	})

	It("recovers after being rate limited twice", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			if calls.Load() <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(tickersJSON))
		}

		tickers, err := testClient(server.URL, 3).Tickers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(HaveLen(2))
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("gives up with upstream unavailable once retries are exhausted", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("Your Request Rate Threshold Exceeded"))
		}

		_, err := testClient(server.URL, 2).Tickers(ctx)
		Expect(data.KindOf(err)).To(Equal(data.ErrUpstreamUnavailable))
		Expect(err.Error()).To(ContainSubstring("wait a few minutes"))
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("retries server errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			if calls.Load() == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(tickersJSON))
		}

		_, err := testClient(server.URL, 1).Tickers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("does not retry a missing document", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}

		_, err := testClient(server.URL, 3).Tickers(ctx)
		Expect(data.KindOf(err)).To(Equal(data.ErrNotFound))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("does not retry a plain forbidden response", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("access denied"))
		}

		_, err := testClient(server.URL, 3).Tickers(ctx)
		Expect(data.KindOf(err)).To(Equal(data.ErrUpstreamUnavailable))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("stops retrying when the context is cancelled", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := testClient(server.URL, 3).Tickers(cancelled)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("pads and strips CIKs", func() {
		Expect(edgar.PadCIK("320193")).To(Equal("0000320193"))
		Expect(edgar.PadCIK("0000320193")).To(Equal("0000320193"))
		Expect(edgar.Accession("0000320193-24-000123")).To(Equal("000032019324000123"))
	})
})
