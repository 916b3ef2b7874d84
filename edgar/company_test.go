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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/edgar"
)

const submissionsJSON = `{
  "cik": "320193",
  "name": "Apple Inc.",
  "fiscalYearEnd": "0928",
  "filings": {
    "recent": {
      "accessionNumber": ["0000320193-24-000123", "0000320193-24-000081", "0000320193-24-000100", "0000320193-23-000106"],
      "filingDate": ["2024-11-01", "2024-08-02", "2024-09-01", "2023-11-03"],
      "reportDate": ["2024-09-28", "2024-06-29", "2024-08-30", "2023-09-30"],
      "form": ["10-K", "10-Q", "8-K", "10-K"],
      "primaryDocument": ["aapl-20240928.htm", "aapl-20240629.htm", "ex99.htm", "aapl-20230930.htm"]
    },
    "files": [{"name": "CIK0000320193-submissions-001.json", "filingCount": 2}]
  }
}`

const overflowJSON = `{
  "accessionNumber": ["0000320193-23-000106", "0000320193-22-000108"],
  "filingDate": ["2023-11-03", "2022-10-28"],
  "reportDate": ["2023-09-30", "2022-09-24"],
  "form": ["10-K", "10-K"],
  "primaryDocument": ["aapl-20230930.htm", "aapl-20220924.htm"]
}`

const factsJSON = `{
  "entityName": "Apple Inc.",
  "facts": {
    "us-gaap": {
      "NetIncomeLoss": {
        "label": "Net Income (Loss)",
        "units": {
          "USD": [
            {"start": "2023-10-01", "end": "2024-09-28", "val": 93736000000, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
          ]
        }
      },
      "Assets": {
        "label": "Assets",
        "units": {
          "USD": [
            {"end": "2024-09-28", "val": 364980000000, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
          ]
        }
      }
    }
  }
}`

const summaryXML = `<?xml version="1.0" encoding="utf-8"?>
<FilingSummary>
  <Reports>
    <Report instance="aapl-20240928.htm">
      <IsDefault>false</IsDefault>
      <HtmlFileName>R1.htm</HtmlFileName>
      <LongName>0000001 - Document - Cover Page</LongName>
      <ShortName>Cover Page</ShortName>
      <MenuCategory>Cover</MenuCategory>
    </Report>
    <Report instance="aapl-20240928.htm">
      <HtmlFileName>R2.htm</HtmlFileName>
      <LongName>0000002 - Statement - CONSOLIDATED STATEMENTS OF OPERATIONS</LongName>
      <ShortName>CONSOLIDATED STATEMENTS OF OPERATIONS</ShortName>
      <MenuCategory>Statements</MenuCategory>
    </Report>
    <Report instance="aapl-20240928.htm">
      <HtmlFileName>R5.htm</HtmlFileName>
      <LongName>0000005 - Statement - CONSOLIDATED BALANCE SHEETS (Parenthetical)</LongName>
      <ShortName>CONSOLIDATED BALANCE SHEETS (Parenthetical)</ShortName>
      <MenuCategory>Statements</MenuCategory>
    </Report>
    <Report instance="aapl-20240928.htm">
      <HtmlFileName>R4.htm</HtmlFileName>
      <LongName>0000004 - Statement - CONSOLIDATED BALANCE SHEETS</LongName>
      <ShortName>CONSOLIDATED BALANCE SHEETS</ShortName>
      <MenuCategory>Statements</MenuCategory>
    </Report>
    <Report instance="aapl-20240928.htm">
      <HtmlFileName>R7.htm</HtmlFileName>
      <LongName>0000007 - Statement - CONSOLIDATED STATEMENTS OF CASH FLOWS</LongName>
      <ShortName>CONSOLIDATED STATEMENTS OF CASH FLOWS</ShortName>
      <MenuCategory>Statements</MenuCategory>
    </Report>
  </Reports>
</FilingSummary>`

const indexJSON = `{"directory": {"name": "/Archives/edgar/data/320193/000032019324000123", "item": [
  {"name": "aapl-20240928.htm", "type": "text.gif"},
  {"name": "aapl-20240928_cal.xml", "type": "text.gif"},
  {"name": "FilingSummary.xml", "type": "text.gif"}
]}}`

var _ = Describe("Company", func() {
	var (
		ctx    context.Context
		routes map[string]string
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		routes = map[string]string{
			"/files/company_tickers.json":                     tickersJSON,
			"/submissions/CIK0000320193.json":                 submissionsJSON,
			"/submissions/CIK0000320193-submissions-001.json": overflowJSON,
			"/api/xbrl/companyfacts/CIK0000320193.json":       factsJSON,

			"/Archives/edgar/data/320193/000032019324000123/FilingSummary.xml":     summaryXML,
			"/Archives/edgar/data/320193/000032019324000123/R2.htm":                "<table><tr><th>CONSOLIDATED STATEMENTS OF OPERATIONS</th></tr></table>",
			"/Archives/edgar/data/320193/000032019324000123/R4.htm":                "<table><tr><th>CONSOLIDATED BALANCE SHEETS</th></tr></table>",
			"/Archives/edgar/data/320193/000032019324000123/index.json":            indexJSON,
			"/Archives/edgar/data/320193/000032019324000123/aapl-20240928_cal.xml": "<linkbase/>",
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := routes[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(body))
		}))
		DeferCleanup(server.Close)
	})

	It("resolves a company with its filing index and facts", func() {
		company, err := testClient(server.URL, 0).ResolveCompany(ctx, "aapl")
		Expect(err).NotTo(HaveOccurred())

		Expect(company.Ticker).To(Equal("AAPL"))
		Expect(company.CIK).To(Equal("320193"))
		Expect(company.FiscalYearEnd).To(Equal("0928"))

		annual := company.FilingsFor(data.Annual)
		Expect(annual).To(HaveLen(3))
		Expect(annual[0].AccessionID).To(Equal("0000320193-24-000123"))
		Expect(annual[2].AccessionID).To(Equal("0000320193-22-000108"))
		Expect(annual[0].PeriodType).To(Equal(data.Annual))

		quarterly := company.FilingsFor(data.Quarterly)
		Expect(quarterly).To(HaveLen(1))
		Expect(quarterly[0].PeriodType).To(Equal(data.Quarterly))

		Expect(company.Facts.Len()).To(Equal(2))
		facts := company.Facts.ByTag("us-gaap_NetIncomeLoss")
		Expect(facts).To(HaveLen(1))
		Expect(facts[0].Value).To(Equal(93736000000.0))
		Expect(facts[0].Days()).To(BeNumerically("~", 364, 2))
	})

	It("tolerates a company without facts", func() {
		delete(routes, "/api/xbrl/companyfacts/CIK0000320193.json")

		company, err := testClient(server.URL, 0).ResolveCompany(ctx, "AAPL")
		Expect(err).NotTo(HaveOccurred())
		Expect(company.Facts.Len()).To(Equal(0))
	})

	It("downloads the statement reports and calculation linkbase of a filing", func() {
		client := testClient(server.URL, 0)
		company, err := client.ResolveCompany(ctx, "AAPL")
		Expect(err).NotTo(HaveOccurred())

		artifacts, err := client.FetchFiling(ctx, company.CIK, company.FilingsFor(data.Annual)[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(artifacts.ReportHTML).To(ContainSubstring("CONSOLIDATED STATEMENTS OF OPERATIONS"))
		Expect(artifacts.ReportHTML).To(ContainSubstring("CONSOLIDATED BALANCE SHEETS"))
		Expect(strings.Count(artifacts.ReportHTML, "<table>")).To(Equal(2))
		Expect(string(artifacts.CalcXML)).To(Equal("<linkbase/>"))
		Expect(artifacts.Auxiliary).To(HaveKey("FilingSummary.xml"))
	})

	It("works without a calculation linkbase", func() {
		delete(routes, "/Archives/edgar/data/320193/000032019324000123/index.json")

		filing := &data.Filing{AccessionID: "0000320193-24-000123", Form: "10-K"}
		artifacts, err := testClient(server.URL, 0).FetchFiling(ctx, "320193", filing)
		Expect(err).NotTo(HaveOccurred())
		Expect(artifacts.CalcXML).To(BeNil())
	})

	It("reports a filing without a summary as malformed", func() {
		filing := &data.Filing{AccessionID: "0000320193-23-000106", Form: "10-K"}
		_, err := testClient(server.URL, 0).FetchFiling(ctx, "320193", filing)
		Expect(data.KindOf(err)).To(Equal(data.ErrMalformedFiling))
	})

	It("selects only primary statement reports", func() {
		reports, err := edgar.ParseFilingSummary([]byte(summaryXML))
		Expect(err).NotTo(HaveOccurred())
		Expect(reports).To(HaveLen(5))

		var selected []string
		for _, report := range reports {
			if report.IsStatement() {
				selected = append(selected, report.HTMLFileName)
			}
		}
		Expect(selected).To(Equal([]string{"R2.htm", "R4.htm", "R7.htm"}))
	})

	It("decodes company facts", func() {
		facts, err := edgar.ParseCompanyFacts([]byte(factsJSON))
		Expect(err).NotTo(HaveOccurred())
		Expect(facts.ByTag("us-gaap_Assets")[0].IsInstant()).To(BeTrue())

		_, err = edgar.ParseCompanyFacts([]byte("{"))
		Expect(data.KindOf(err)).To(Equal(data.ErrMalformedFiling))
	})
})
