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
package statement_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/statement"
)

type fixtureRow struct {
	tag    string
	label  string
	class  string
	values []string
}

// reportTable renders a statement the way EDGAR renders its R files
func reportTable(title string, bucket string, headers []string, rows []fixtureRow) string {
	var sb strings.Builder
	sb.WriteString(`<table class="report" border="0" cellspacing="2">`)
	sb.WriteString(`<tr><th class="tl" colspan="1" rowspan="2"><div style="width: 200px;"><strong>`)
	sb.WriteString(title)
	sb.WriteString(`</strong></div></th>`)
	if bucket != "" {
		fmt.Fprintf(&sb, `<th class="th" colspan="%d">%s</th></tr><tr>`, len(headers), bucket)
	}
	for _, header := range headers {
		fmt.Fprintf(&sb, `<th class="th"><div>%s</div></th>`, header)
	}
	sb.WriteString(`</tr>`)

	for _, row := range rows {
		fmt.Fprintf(&sb, `<tr class="%s"><td class="pl"><a class="a" href="javascript:void(0);" onclick="top.Show.showAR( this, 'defref_%s', window );">%s</a></td>`,
			row.class, row.tag, row.label)
		for _, v := range row.values {
			fmt.Fprintf(&sb, `<td class="nump">%s</td>`, v)
		}
		sb.WriteString(`</tr>`)
	}

	sb.WriteString(`</table>`)
	return sb.String()
}

func operations() string {
	return reportTable(
		"CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) shares in Thousands, $ in Millions",
		"12 Months Ended",
		[]string{"Sep. 28, 2024", "Sep. 30, 2023", "Sep. 24, 2022"},
		[]fixtureRow{
			{tag: "us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax", label: "Total net sales", class: "reu", values: []string{"$ 391,035", "$ 383,285", "$ 394,328"}},
			{tag: "us-gaap_OperatingExpensesAbstract", label: "Operating expenses:", class: "re", values: []string{"", "", ""}},
			{tag: "us-gaap_ResearchAndDevelopmentExpense", label: "Research and development", class: "re", values: []string{"31,370", "29,915", "26,251"}},
			{tag: "us-gaap_NetIncomeLoss", label: "Net income", class: "reu", values: []string{"$ 93,736", "$ 96,995", "(1,000)"}},
			{tag: "us-gaap_EarningsPerShareBasic", label: "Basic (in dollars per share)", class: "re", values: []string{"$ 6.11", "$ 6.16", "$ 6.15"}},
			{tag: "us-gaap_WeightedAverageNumberOfSharesOutstandingBasic", label: "Basic (in shares)", class: "re", values: []string{"15,343,783", "15,744,231", "16,215,963"}},
		},
	)
}

var _ = Describe("Extractor", func() {
	It("extracts rows, columns and units from an annual statement", func() {
		raw, err := statement.Extract(operations(), data.IncomeStatement, data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).NotTo(BeNil())

		Expect(raw.Columns).To(HaveLen(3))
		Expect(raw.Columns[0].Key()).To(Equal("2024-09-28"))
		Expect(raw.Columns[0].Currency).To(Equal("USD"))
		Expect(raw.Columns[0].Days).To(BeNumerically("~", 366, 1))

		Expect(raw.RowLabels()).To(Equal([]string{
			"us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax",
			"us-gaap_ResearchAndDevelopmentExpense",
			"us-gaap_NetIncomeLoss",
			"us-gaap_EarningsPerShareBasic",
			"us-gaap_WeightedAverageNumberOfSharesOutstandingBasic",
		}))

		revenue := raw.Rows[0]
		Expect(revenue.HumanLabel).To(Equal("Total net sales"))
		Expect(revenue.IsSum).To(BeTrue())
		Expect(revenue.Emphasis).To(BeTrue())
		Expect(revenue.Reported[0]).To(Equal(391035.0))
		Expect(revenue.Values[0]).To(Equal(391035e6))

		Expect(raw.Rows[1].IsSum).To(BeFalse())
		Expect(raw.Rows[2].Values[2]).To(Equal(-1000e6))

		eps := raw.Rows[3]
		Expect(eps.Values[0]).To(Equal(6.11))
		Expect(raw.Unit(eps).Type).To(Equal(data.UnitPerShare))

		shares := raw.Rows[4]
		Expect(shares.Values[0]).To(Equal(15343783e3))
		unit := raw.Unit(shares)
		Expect(unit.Type).To(Equal(data.UnitShares))
		Expect(unit.ScaleApplied).To(Equal(1e3))
		Expect(unit.Source).To(Equal(data.SourceHeader))
	})

	It("returns nil when the report has no matching statement", func() {
		raw, err := statement.Extract(operations(), data.BalanceSheet, data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(BeNil())
	})

	It("reports a statement without usable columns as malformed", func() {
		_, err := statement.Extract(operations(), data.IncomeStatement, data.Quarterly)
		Expect(err).To(MatchError(data.ErrMalformedFiling))
	})

	It("keeps the three month columns of a quarterly report", func() {
		html := `<table class="report">` +
			`<tr><th class="tl" rowspan="2"><strong>CONDENSED CONSOLIDATED STATEMENTS OF OPERATIONS (Unaudited) - USD ($) $ in Millions</strong></th>` +
			`<th class="th" colspan="2">3 Months Ended</th><th class="th" colspan="2">9 Months Ended</th></tr>` +
			`<tr><th class="th">Jun. 29, 2024</th><th class="th">Jul. 01, 2023</th><th class="th">Jun. 29, 2024</th><th class="th">Jul. 01, 2023</th></tr>` +
			`<tr class="re"><td class="pl"><a onclick="top.Show.showAR( this, 'defref_us-gaap_Revenues', window );">Revenues</a></td>` +
			`<td class="nump">85,777</td><td class="nump">81,797</td><td class="nump">296,105</td><td class="nump">281,686</td></tr>` +
			`</table>`

		raw, err := statement.Extract(html, data.IncomeStatement, data.Quarterly)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Columns).To(HaveLen(2))
		Expect(raw.Columns[0].Key()).To(Equal("2024-06-29"))
		Expect(raw.Columns[1].Key()).To(Equal("2023-07-01"))
		Expect(raw.Rows[0].Values).To(Equal([]float64{85777e6, 81797e6}))
	})

	It("keeps only the majority currency when the header mixes currencies", func() {
		html := reportTable(
			"CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) $ in Thousands",
			"12 Months Ended",
			[]string{
				"Dec. 31, 2024 USD ($)", "Dec. 31, 2023 USD ($)", "Dec. 31, 2022 USD ($)",
				"Dec. 31, 2023 CNY (¥)", "Dec. 31, 2022 CNY (¥)",
			},
			[]fixtureRow{
				{tag: "us-gaap_Revenues", label: "Total revenues", class: "reu", values: []string{"300", "200", "100", "1,400", "700"}},
			},
		)

		raw, err := statement.Extract(html, data.IncomeStatement, data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Columns).To(HaveLen(3))
		for _, col := range raw.Columns {
			Expect(col.Currency).To(Equal("USD"))
		}
		Expect(raw.Rows[0].Values).To(Equal([]float64{300e3, 200e3, 100e3}))
	})

	It("treats balance sheet columns as instants", func() {
		html := reportTable(
			"CONSOLIDATED BALANCE SHEETS - USD ($) $ in Millions",
			"",
			[]string{"Sep. 28, 2024", "Sep. 30, 2023"},
			[]fixtureRow{
				{tag: "us-gaap_Assets", label: "Total assets", class: "reu", values: []string{"364,980", "352,583"}},
			},
		)

		raw, err := statement.Extract(html, data.BalanceSheet, data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Columns).To(HaveLen(2))
		Expect(raw.Columns[0].Days).To(Equal(0))
		Expect(raw.Rows[0].Values[1]).To(Equal(352583e6))
	})
})
