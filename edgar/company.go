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
package edgar

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

type tickerRow struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type submissions struct {
	CIK           string `json:"cik"`
	Name          string `json:"name"`
	FiscalYearEnd string `json:"fiscalYearEnd"`
	Filings       struct {
		Recent filingColumns `json:"recent"`
		Files  []struct {
			Name        string `json:"name"`
			FilingCount int    `json:"filingCount"`
		} `json:"files"`
	} `json:"filings"`
}

// filingColumns is the columnar filing index used by both the recent block and the
// overflow pages
type filingColumns struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

type companyFacts struct {
	EntityName string                                `json:"entityName"`
	Facts      map[string]map[string]companyConcept `json:"facts"`
}

type companyConcept struct {
	Label string                  `json:"label"`
	Units map[string][]factRecord `json:"units"`
}

type factRecord struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Value float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// PadCIK renders a CIK as the 10 digit zero padded string EDGAR uses in file names
func PadCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return fmt.Sprintf("%010s", trimmed)
}

func unpadCIK(cik string) string {
	trimmed := strings.TrimLeft(cik, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Tickers returns the SEC ticker directory ordered by ticker
func (client *Client) Tickers(ctx context.Context) ([]*TickerEntry, error) {
	directory, err := client.directory(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*TickerEntry, 0, int(directory.Len()))
	directory.ForEach(func(_ string, entry *TickerEntry) bool {
		entries = append(entries, entry)
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Ticker < entries[j].Ticker
	})

	return entries, nil
}

// Lookup resolves a ticker to its directory entry
func (client *Client) Lookup(ctx context.Context, ticker string) (*TickerEntry, error) {
	directory, err := client.directory(ctx)
	if err != nil {
		return nil, err
	}

	ticker = data.CanonicalTicker(ticker)
	entry, ok := directory.Get(ticker)
	if !ok {
		return nil, data.NewError(data.ErrNotFound, component, nil, "ticker %s is not in the EDGAR directory", ticker)
	}

	return entry, nil
}

// directory loads the ticker map once per client
func (client *Client) directory(ctx context.Context) (*haxmap.Map[string, *TickerEntry], error) {
	client.tickerLock.Lock()
	defer client.tickerLock.Unlock()

	if client.tickers != nil {
		return client.tickers, nil
	}

	rows := make(map[string]*tickerRow)
	if _, err := client.get(ctx, client.config.WWWBaseURL+"/files/company_tickers.json", &rows); err != nil {
		return nil, err
	}

	// rows are keyed "0", "1", ... in the order the SEC lists them
	keys := lo.Keys(rows)
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	directory := haxmap.New[string, *TickerEntry]()
	for _, key := range keys {
		row := rows[key]
		ticker := data.CanonicalTicker(row.Ticker)
		if ticker == "" {
			continue
		}

		// the first listing of a ticker wins
		if _, exists := directory.Get(ticker); exists {
			continue
		}

		directory.Set(ticker, &TickerEntry{
			Ticker: ticker,
			CIK:    strconv.FormatInt(row.CIK, 10),
			Name:   row.Title,
		})
	}

	zerolog.Ctx(ctx).Debug().Int("NumTickers", int(directory.Len())).Msg("loaded EDGAR ticker directory")

	client.tickers = directory
	return directory, nil
}

// ResolveCompany finds the CIK of ticker and loads its filing index and company facts
func (client *Client) ResolveCompany(ctx context.Context, ticker string) (*data.Company, error) {
	logger := zerolog.Ctx(ctx)

	entry, err := client.Lookup(ctx, ticker)
	if err != nil {
		return nil, err
	}

	company := &data.Company{
		Ticker:  entry.Ticker,
		CIK:     entry.CIK,
		Name:    entry.Name,
		Filings: make(map[string][]*data.Filing),
	}

	subs := &submissions{}
	url := fmt.Sprintf("%s/submissions/CIK%s.json", client.config.DataBaseURL, PadCIK(entry.CIK))
	if _, err := client.get(ctx, url, subs); err != nil {
		return nil, err
	}

	if subs.Name != "" {
		company.Name = subs.Name
	}
	company.FiscalYearEnd = subs.FiscalYearEnd

	seen := make(map[string]bool)
	addFilings(company, subs.Filings.Recent, seen)

	for _, file := range subs.Filings.Files {
		page := filingColumns{}
		pageURL := fmt.Sprintf("%s/submissions/%s", client.config.DataBaseURL, file.Name)
		if _, err := client.get(ctx, pageURL, &page); err != nil {
			return nil, err
		}
		addFilings(company, page, seen)
	}

	for form := range company.Filings {
		sortFilings(company.Filings[form])
	}

	company.Facts, err = client.CompanyFacts(ctx, entry.CIK)
	if err != nil {
		if data.KindOf(err) != data.ErrNotFound {
			return nil, err
		}

		// unit verification degrades gracefully without facts
		logger.Warn().Str("Ticker", company.Ticker).Msg("company facts are not available")
	}

	logger.Info().Object("Company", company).Int("NumFacts", company.Facts.Len()).
		Int("NumAnnual", len(company.FilingsFor(data.Annual))).
		Int("NumQuarterly", len(company.FilingsFor(data.Quarterly))).
		Msg("resolved company")

	return company, nil
}

var supportedForms = lo.Union(data.AnnualForms, data.QuarterlyForms)

func addFilings(company *data.Company, columns filingColumns, seen map[string]bool) {
	for idx, accession := range columns.AccessionNumber {
		if seen[accession] {
			continue
		}

		form := at(columns.Form, idx)
		if !lo.Contains(supportedForms, form) {
			continue
		}

		reportDate, err := time.Parse(dateLayout, at(columns.ReportDate, idx))
		if err != nil {
			continue
		}

		filingDate, _ := time.Parse(dateLayout, at(columns.FilingDate, idx))

		seen[accession] = true
		company.Filings[form] = append(company.Filings[form], &data.Filing{
			ReportDate:      reportDate,
			FilingDate:      filingDate,
			AccessionID:     accession,
			Form:            form,
			PeriodType:      periodTypeOf(form),
			PrimaryDocument: at(columns.PrimaryDocument, idx),
		})
	}
}

func periodTypeOf(form string) data.PeriodType {
	return data.PeriodTypeFor(lo.Contains(data.QuarterlyForms, form))
}

func sortFilings(filings []*data.Filing) {
	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].ReportDate.After(filings[j].ReportDate)
	})
}

func at(values []string, idx int) string {
	if idx < len(values) {
		return values[idx]
	}
	return ""
}

// CompanyFacts downloads and flattens the issuer's XBRL company facts
func (client *Client) CompanyFacts(ctx context.Context, cik string) (*data.CompanyFacts, error) {
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", client.config.DataBaseURL, PadCIK(cik))
	body, err := client.getBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	return ParseCompanyFacts(body)
}

// ParseCompanyFacts converts a companyfacts document into a fact table. Tags are written as
// <taxonomy>_<concept> to match statement row labels.
func ParseCompanyFacts(body []byte) (*data.CompanyFacts, error) {
	doc := &companyFacts{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, component, err, "could not decode company facts")
	}

	facts := data.NewCompanyFacts(nil)
	for taxonomy, concepts := range doc.Facts {
		for concept, detail := range concepts {
			tag := taxonomy + "_" + concept
			for unit, records := range detail.Units {
				for _, record := range records {
					end, err := time.Parse(dateLayout, record.End)
					if err != nil {
						continue
					}

					fact := &data.Fact{
						Tag:          tag,
						End:          end,
						Unit:         unit,
						Value:        record.Value,
						Form:         record.Form,
						FiscalPeriod: record.FP,
						AccessionID:  record.Accn,
					}

					if record.Start != "" {
						if start, err := time.Parse(dateLayout, record.Start); err == nil {
							fact.Start = start
						}
					}

					if filed, err := time.Parse(dateLayout, record.Filed); err == nil {
						fact.Filed = filed
					}

					facts.Add(fact)
				}
			}
		}
	}

	return facts, nil
}

// Accession returns the accession number without dashes as used in archive paths
func Accession(accessionID string) string {
	return strings.ReplaceAll(accessionID, "-", "")
}

func (client *Client) archiveURL(cik, accessionID, name string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s", client.config.WWWBaseURL, unpadCIK(cik), Accession(accessionID), name)
}
