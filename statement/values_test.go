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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/statement"
)

var _ = Describe("Values", func() {
	DescribeTable("ParseNumber",
		func(s string, expected float64, ok bool) {
			v, found := statement.ParseNumber(s)
			Expect(found).To(Equal(ok))
			if ok {
				Expect(v).To(Equal(expected))
			} else {
				Expect(data.IsMissing(v)).To(BeTrue())
			}
		},
		Entry("plain", "394,328", 394328.0, true),
		Entry("currency glyph", "$ 1,234.5", 1234.5, true),
		Entry("negative in parentheses", "(1,046)", -1046.0, true),
		Entry("footnote", "12[1]", 12.0, true),
		Entry("currency code", "RMB 8,900", 8900.0, true),
		Entry("unicode minus", "−3.2", -3.2, true),
		Entry("dash", "—", 0.0, false),
		Entry("blank", " ", 0.0, false),
		Entry("text", "n/a", 0.0, false),
	)

	DescribeTable("ParseDate",
		func(s string, expected string) {
			dt, err := statement.ParseDate(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(dt.Format(data.DateFormat)).To(Equal(expected))
		},
		Entry("abbreviated", "Sep. 28, 2024", "2024-09-28"),
		Entry("sept", "Sept. 30, 2023", "2023-09-30"),
		Entry("full month", "December 31, 2022", "2022-12-31"),
		Entry("with currency", "Dec. 31, 2023 CNY (¥)", "2023-12-31"),
		Entry("iso", "2021-06-30", "2021-06-30"),
	)

	It("rejects text without a date", func() {
		_, err := statement.ParseDate("12 Months Ended")
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("ParseScale",
		func(text string, currency, shares float64, declared bool) {
			scale := statement.ParseScale(text)
			Expect(scale.Currency).To(Equal(currency))
			Expect(scale.Shares).To(Equal(shares))
			Expect(scale.Declared).To(Equal(declared))
		},
		Entry("separate share scale", "shares in Thousands, $ in Millions", 1e6, 1e3, true),
		Entry("shared scale", "$ in Millions", 1e6, 1e6, true),
		Entry("except share data", "In Thousands, except Share data", 1e3, 1.0, true),
		Entry("nothing declared", "", 1.0, 1.0, false),
	)

	DescribeTable("MatchTitle",
		func(title string, st data.StatementType, expected bool) {
			Expect(statement.MatchTitle(title, st)).To(Equal(expected))
		},
		Entry("operations", "CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) $ in Millions", data.IncomeStatement, true),
		Entry("balance sheet", "Consolidated Balance Sheets - USD ($)", data.BalanceSheet, true),
		Entry("financial position", "Consolidated Statements of Financial Position", data.BalanceSheet, true),
		Entry("cash flows", "CONSOLIDATED STATEMENTS OF CASH FLOWS - USD ($) $ in Millions", data.CashFlow, true),
		Entry("parenthetical", "CONSOLIDATED BALANCE SHEETS (Parenthetical)", data.BalanceSheet, false),
		Entry("wrong type", "Consolidated Balance Sheets", data.IncomeStatement, false),
	)

	It("parses dates as midnight UTC", func() {
		dt, err := statement.ParseDate("Mar. 30, 2024")
		Expect(err).NotTo(HaveOccurred())
		Expect(dt.Location()).To(Equal(time.UTC))
	})
})
