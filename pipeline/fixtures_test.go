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
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/data"
)

type line struct {
	tag    string
	label  string
	total  bool
	values []float64
}

// report renders one statement table in the layout of an EDGAR R file
func report(title, bucket string, dates []string, lines ...line) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<table class="report"><tr><th class="tl" rowspan="2"><strong>%s</strong></th>`, title)
	if bucket != "" {
		fmt.Fprintf(&sb, `<th class="th" colspan="%d">%s</th></tr><tr>`, len(dates), bucket)
	}
	for _, d := range dates {
		dt, err := time.Parse(data.DateFormat, d)
		Expect(err).NotTo(HaveOccurred())
		fmt.Fprintf(&sb, `<th class="th"><div>%s</div></th>`, dt.Format("Jan. 02, 2006"))
	}
	sb.WriteString(`</tr>`)

	for _, l := range lines {
		class := "re"
		if l.total {
			class = "reu"
		}
		fmt.Fprintf(&sb, `<tr class="%s"><td class="pl"><a onclick="top.Show.showAR( this, 'defref_%s', window );">%s</a></td>`, class, l.tag, l.label)
		for _, v := range l.values {
			fmt.Fprintf(&sb, `<td class="nump">%s</td>`, printed(v))
		}
		sb.WriteString(`</tr>`)
	}

	sb.WriteString(`</table>`)
	return sb.String()
}

// printed formats v the way statements print figures, negatives in parentheses
func printed(v float64) string {
	if v < 0 {
		return fmt.Sprintf("(%.0f)", -v)
	}
	return fmt.Sprintf("%.0f", v)
}

func day(s string) time.Time {
	dt, err := time.Parse(data.DateFormat, s)
	Expect(err).NotTo(HaveOccurred())
	return dt
}

func filing(accession, form, report string) *data.Filing {
	pt := data.Annual
	if form == "10-Q" {
		pt = data.Quarterly
	}
	return &data.Filing{AccessionID: accession, Form: form, ReportDate: day(report), FilingDate: day(report).AddDate(0, 1, 0), PeriodType: pt}
}

// fakeSource serves a fixed company and its filing artifacts
type fakeSource struct {
	company   *data.Company
	artifacts map[string]string
	errs      map[string]error
	fetched   []string
	onFetch   func(accession string)
}

func newFakeSource(fiscalYearEnd string, filings ...*data.Filing) *fakeSource {
	company := &data.Company{
		Ticker:        "ACME",
		CIK:           "1234567",
		Name:          "Acme Corp",
		FiscalYearEnd: fiscalYearEnd,
		Filings:       make(map[string][]*data.Filing),
	}

	for _, f := range filings {
		company.Filings[f.Form] = append(company.Filings[f.Form], f)
	}

	return &fakeSource{
		company:   company,
		artifacts: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (source *fakeSource) ResolveCompany(_ context.Context, ticker string) (*data.Company, error) {
	if ticker != source.company.Ticker {
		return nil, data.NewError(data.ErrNotFound, "fake", nil, "ticker %s", ticker)
	}
	return source.company, nil
}

func (source *fakeSource) FetchFiling(_ context.Context, _ string, f *data.Filing) (*data.FilingArtifacts, error) {
	source.fetched = append(source.fetched, f.AccessionID)
	if source.onFetch != nil {
		source.onFetch(f.AccessionID)
	}

	if err, ok := source.errs[f.AccessionID]; ok {
		return nil, err
	}

	html, ok := source.artifacts[f.AccessionID]
	if !ok {
		return nil, data.NewError(data.ErrNotFound, "fake", nil, "filing %s", f.AccessionID)
	}

	return &data.FilingArtifacts{Filing: f, ReportHTML: html}, nil
}

const (
	operationsTitle = "CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) $ in Millions"
	balanceTitle    = "CONSOLIDATED BALANCE SHEETS - USD ($) $ in Millions"
)

func annualIncome(dates []string, revenue, netIncome []float64) string {
	return report(operationsTitle, "12 Months Ended", dates,
		line{tag: "us-gaap_Revenues", label: "Total revenues", total: true, values: revenue},
		line{tag: "us-gaap_NetIncomeLoss", label: "Net income", total: true, values: netIncome},
	)
}

func quarterlyIncome(date string, revenue float64) string {
	return report("CONDENSED CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) $ in Millions", "3 Months Ended", []string{date},
		line{tag: "us-gaap_Revenues", label: "Total revenues", total: true, values: []float64{revenue}},
	)
}
