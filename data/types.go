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
package data

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type PeriodType string

const (
	Annual    PeriodType = "annual"
	Quarterly PeriodType = "quarterly"
)

// PeriodTypeFor returns Quarterly when quarterly is true and Annual otherwise
func PeriodTypeFor(quarterly bool) PeriodType {
	if quarterly {
		return Quarterly
	}
	return Annual
}

type StatementType string

const (
	IncomeStatement StatementType = "income_statement"
	BalanceSheet    StatementType = "balance_sheet"
	CashFlow        StatementType = "cash_flow"
)

// StatementTypes lists every statement type in the order they are reported
var StatementTypes = []StatementType{IncomeStatement, BalanceSheet, CashFlow}

// IsFlow reports whether values of the statement accumulate over a period
func (st StatementType) IsFlow() bool {
	return st != BalanceSheet
}

// ParseStatementType accepts the canonical names plus a few common shorthands
func ParseStatementType(s string) (StatementType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income_statement", "income", "is", "operations":
		return IncomeStatement, true
	case "balance_sheet", "balance", "bs":
		return BalanceSheet, true
	case "cash_flow", "cashflow", "cf", "cash":
		return CashFlow, true
	}
	return "", false
}

// Form families
var (
	AnnualForms    = []string{"10-K", "20-F"}
	QuarterlyForms = []string{"10-Q"}
)

// FormsFor returns the form types that make up the family for the requested periodicity
func FormsFor(pt PeriodType) []string {
	if pt == Quarterly {
		return QuarterlyForms
	}
	return AnnualForms
}

// CanonicalTicker uppercases the symbol and maps share class dots to dashes (BRK.B -> BRK-B)
func CanonicalTicker(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return strings.ReplaceAll(ticker, ".", "-")
}

type Filing struct {
	ReportDate      time.Time  `json:"report_date" toml:"report_date"`
	FilingDate      time.Time  `json:"filing_date" toml:"filing_date"`
	AccessionID     string     `json:"accession_id" toml:"accession_id"`
	Form            string     `json:"form" toml:"form"`
	PeriodType      PeriodType `json:"period_type" toml:"period_type"`
	PrimaryDocument string     `json:"primary_document,omitempty" toml:"primary_document"`
}

func (filing *Filing) MarshalZerologObject(e *zerolog.Event) {
	e.Str("AccessionID", filing.AccessionID)
	e.Str("Form", filing.Form)
	e.Time("ReportDate", filing.ReportDate)
}

// FilingArtifacts holds everything downloaded for a single filing
type FilingArtifacts struct {
	Filing     *Filing
	ReportHTML string
	CalcXML    []byte
	Auxiliary  map[string][]byte
}

type Company struct {
	Ticker        string
	CIK           string
	Name          string
	FiscalYearEnd string // MMDD
	Filings       map[string][]*Filing
	Facts         *CompanyFacts
}

func (company *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", company.Ticker)
	e.Str("CIK", company.CIK)
	e.Str("Name", company.Name)
}

// FilingsFor merges the forms of the requested family newest first by report date
func (company *Company) FilingsFor(pt PeriodType) []*Filing {
	var filings []*Filing
	for _, form := range FormsFor(pt) {
		filings = append(filings, company.Filings[form]...)
	}

	sort.SliceStable(filings, func(i, j int) bool {
		if filings[i].ReportDate.Equal(filings[j].ReportDate) {
			return filings[i].FilingDate.After(filings[j].FilingDate)
		}
		return filings[i].ReportDate.After(filings[j].ReportDate)
	})

	return filings
}

// FiscalYearEndDate returns the month and day the fiscal year closes on. Companies that
// have not published one are assumed to close on December 31.
func (company *Company) FiscalYearEndDate() (time.Month, int) {
	return ParseFiscalYearEnd(company.FiscalYearEnd)
}

// ParseFiscalYearEnd converts an EDGAR MMDD string into month and day
func ParseFiscalYearEnd(mmdd string) (time.Month, int) {
	if len(mmdd) != 4 {
		return time.December, 31
	}

	month := int(mmdd[0]-'0')*10 + int(mmdd[1]-'0')
	day := int(mmdd[2]-'0')*10 + int(mmdd[3]-'0')
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.December, 31
	}

	return time.Month(month), day
}
