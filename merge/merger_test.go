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
package merge_test

import (
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/merge"
)

func day(s string) time.Time {
	dt, err := time.Parse(data.DateFormat, s)
	Expect(err).NotTo(HaveOccurred())
	return dt
}

func filing(accession, report string) *data.Filing {
	return &data.Filing{AccessionID: accession, Form: "10-K", ReportDate: day(report), PeriodType: data.Annual}
}

func canonical(f *data.Filing, dates []string, rows map[string][]float64, raw ...*data.RawRow) *data.CanonicalStatement {
	stmt := &data.CanonicalStatement{Type: data.IncomeStatement, Filing: f}
	for _, d := range dates {
		stmt.Columns = append(stmt.Columns, data.Column{EndDate: day(d), Days: 365, Currency: "USD"})
	}

	for _, name := range []string{"Total revenue", "Net income"} {
		if values, ok := rows[name]; ok {
			stmt.Rows = append(stmt.Rows, &data.CanonicalRow{Name: name, Values: values, Unit: data.FallbackUnit()})
		}
	}

	for _, r := range raw {
		stmt.RawView = append(stmt.RawView, r)
		stmt.RawUnits = append(stmt.RawUnits, data.FallbackUnit())
	}

	return stmt
}

// encoded renders a merged statement the way it is cached, missing cells as null
func encoded(ms *data.MergedStatement) string {
	body, err := json.Marshal(data.NewStatementDocument(ms))
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

var _ = Describe("Merger", func() {
	It("unions periods with the newest filing winning overlaps", func() {
		newest := canonical(filing("0001", "2024-12-31"), []string{"2024-12-31", "2023-12-31"},
			map[string][]float64{"Total revenue": {500, 410}, "Net income": {50, 41}})
		older := canonical(filing("0002", "2023-12-31"), []string{"2023-12-31", "2022-12-31"},
			map[string][]float64{"Total revenue": {400, 300}})

		merged := merge.Merge([]*data.CanonicalStatement{newest, older}, data.IncomeStatement)

		Expect(merged.Columns).To(HaveLen(3))
		Expect(merged.Columns[0].Key()).To(Equal("2024-12-31"))
		Expect(merged.Columns[2].Key()).To(Equal("2022-12-31"))
		Expect(merged.RowNames).To(Equal([]string{"Total revenue", "Net income"}))
		Expect(merged.Data[0]).To(Equal([]float64{500, 410, 300}))
		Expect(merged.Data[1][0]).To(Equal(50.0))
		Expect(data.IsMissing(merged.Data[1][2])).To(BeTrue())
		Expect(merged.Sources).To(HaveLen(2))
	})

	It("prefers a non-zero value from a filing with the same report date", func() {
		first := canonical(filing("0001", "2024-12-31"), []string{"2024-12-31"},
			map[string][]float64{"Total revenue": {0}})
		amended := canonical(filing("0003", "2024-12-31"), []string{"2024-12-31"},
			map[string][]float64{"Total revenue": {500}})

		merged := merge.Merge([]*data.CanonicalStatement{first, amended}, data.IncomeStatement)
		Expect(merged.Data[0][0]).To(Equal(500.0))
	})

	It("counts a filing listed twice once", func() {
		f := filing("0001", "2024-12-31")
		stmt := canonical(f, []string{"2024-12-31"}, map[string][]float64{"Total revenue": {500}},
			&data.RawRow{Label: "acme_Widgets", HumanLabel: "Widgets", Values: []float64{7}})

		merged := merge.Merge([]*data.CanonicalStatement{stmt, stmt, nil}, data.IncomeStatement)
		Expect(merged.Sources).To(HaveLen(1))
		Expect(merged.RawRowNames).To(Equal([]string{"Widgets [2024-12-31]"}))
	})

	It("keeps raw rows from different filings apart", func() {
		newest := canonical(filing("0001", "2024-12-31"), []string{"2024-12-31", "2023-12-31"}, nil,
			&data.RawRow{Label: "acme_Widgets", HumanLabel: "Widgets", Values: []float64{7, 6}})
		older := canonical(filing("0002", "2023-12-31"), []string{"2023-12-31", "2022-12-31"}, nil,
			&data.RawRow{Label: "acme_Widgets", HumanLabel: "Widgets", Values: []float64{6, 5}})

		merged := merge.Merge([]*data.CanonicalStatement{newest, older}, data.IncomeStatement)
		Expect(merged.RawRowNames).To(Equal([]string{"Widgets [2024-12-31]", "Widgets [2023-12-31]"}))
		Expect(merged.RawData[0][0]).To(Equal(7.0))
		Expect(data.IsMissing(merged.RawData[0][2])).To(BeTrue())
		Expect(merged.RawData[1][2]).To(Equal(5.0))
		Expect(merged.RowNames).To(BeEmpty())
	})

	It("gives the same result when a filing is repeated after another", func() {
		build := func() (*data.CanonicalStatement, *data.CanonicalStatement) {
			a := canonical(filing("0001", "2024-12-31"), []string{"2024-12-31", "2023-12-31"},
				map[string][]float64{"Total revenue": {500, 410}, "Net income": {50, 41}},
				&data.RawRow{Label: "acme_Widgets", HumanLabel: "Widgets", Values: []float64{7, 6}})
			b := canonical(filing("0002", "2023-12-31"), []string{"2023-12-31", "2022-12-31"},
				map[string][]float64{"Total revenue": {400, 300}})
			return a, b
		}

		a, b := build()
		repeated, _ := build()

		once := merge.Merge([]*data.CanonicalStatement{a, b}, data.IncomeStatement)
		twice := merge.Merge([]*data.CanonicalStatement{a, b, repeated}, data.IncomeStatement)

		Expect(twice.Sources).To(HaveLen(2))
		Expect(encoded(twice)).To(Equal(encoded(once)))
	})

	It("returns an empty statement without input", func() {
		merged := merge.Merge(nil, data.CashFlow)
		Expect(merged.Empty()).To(BeTrue())
		Expect(merged.Type).To(Equal(data.CashFlow))
	})
})
