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
package statement

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penny-vault/pvfin/data"
)

var (
	defrefRE   = regexp.MustCompile(`defref_([^'"\s,)]+)`)
	perShareRE = regexp.MustCompile(`(?i)per (common |ordinary )?(share|ads|unit)|dollars per share|\$ / shares|/share`)
	sharesRE   = regexp.MustCompile(`(?i)\bshares\b|weighted.average (number|common|basic|diluted)|\(in shares\)`)
	totalRE    = regexp.MustCompile(`(?i)^total\b`)
)

type rowKind int

const (
	currencyRow rowKind = iota
	perShareRow
	sharesRow
)

// classifyRow decides which scale applies to a row using its tag and label
func classifyRow(tag, label string) rowKind {
	lowerTag := strings.ToLower(tag)
	switch {
	case strings.Contains(lowerTag, "pershare") || strings.Contains(lowerTag, "perbasicshare") ||
		strings.Contains(lowerTag, "perdilutedshare") || perShareRE.MatchString(label):
		return perShareRow
	case strings.Contains(lowerTag, "numberofshares") || strings.Contains(lowerTag, "sharesoutstanding") ||
		strings.Contains(lowerTag, "weightedaveragenumber") || sharesRE.MatchString(label):
		return sharesRow
	}
	return currencyRow
}

// Extract finds the statement of the requested type in a filing's report HTML and returns
// its rows and the columns relevant for the periodicity. A nil statement with a nil error
// means the report does not contain the statement.
func Extract(reportHTML string, st data.StatementType, pt data.PeriodType) (*data.RawStatement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(reportHTML))
	if err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, "statement", err, "could not parse report html")
	}

	var (
		result   *data.RawStatement
		lastErr  error
		finished bool
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		title := tableTitle(table)
		if title == "" || !MatchTitle(title, st) {
			return true
		}

		raw, err := extractTable(table, title, st, pt)
		if err != nil {
			lastErr = err
			return true
		}

		result = raw
		finished = true
		return false
	})

	if finished {
		return result, nil
	}

	return nil, lastErr
}

func tableTitle(table *goquery.Selection) string {
	first := table.Find("tr").First()
	th := first.Find("th").First()
	if th.Length() == 0 {
		return ""
	}
	return cellText(th)
}

func cellText(sel *goquery.Selection) string {
	return spaceRE.ReplaceAllString(strings.TrimSpace(sel.Text()), " ")
}

// expandRow returns the text of every cell in a header row, repeated for its colspan
func expandRow(cells *goquery.Selection) []string {
	var texts []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := parsePositive(v); err == nil {
				span = n
			}
		}

		text := cellText(cell)
		for i := 0; i < span; i++ {
			texts = append(texts, text)
		}
	})
	return texts
}

func extractTable(table *goquery.Selection, title string, st data.StatementType, pt data.PeriodType) (*data.RawStatement, error) {
	_, titleCurrency, scaleText := titleParts(title)
	scale := ParseScale(scaleText)

	var (
		headerCells []*goquery.Selection
		bodyRows    []*goquery.Selection
	)

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() == 0 && tr.Find("th").Length() > 0 {
			if len(bodyRows) == 0 {
				headerCells = append(headerCells, tr.Find("th"))
			}
			return
		}
		bodyRows = append(bodyRows, tr)
	})

	if len(headerCells) == 0 {
		return nil, data.NewError(data.ErrMalformedFiling, "statement", nil, "statement %q has no header rows", title)
	}

	numCols := 0
	for _, tr := range bodyRows {
		if n := tr.Find("td").Length() - 1; n > numCols {
			numCols = n
		}
	}

	headerRows := make([][]string, 0, len(headerCells))
	for idx, cells := range headerCells {
		expanded := expandRow(cells)
		// the first header row always starts with the title cell; later rows carry it only
		// when the title does not span them
		if idx == 0 || len(expanded) == numCols+1 {
			if len(expanded) > 0 {
				expanded = expanded[1:]
			}
		}
		headerRows = append(headerRows, expanded)
	}

	columns := selectColumns(buildColumns(headerRows, numCols, titleCurrency), st, pt, titleCurrency)
	if len(columns) == 0 {
		return nil, data.NewError(data.ErrMalformedFiling, "statement", nil, "statement %q has no usable %s columns", title, pt)
	}

	raw := &data.RawStatement{
		Type:    st,
		Title:   title,
		UnitMap: make(map[string]data.UnitInfo),
	}

	for _, col := range columns {
		raw.Columns = append(raw.Columns, col.column)
	}

	baseCurrency := raw.Columns[0].Currency

	for _, tr := range bodyRows {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			continue
		}

		labelCell := cells.First()
		tag, human := rowLabels(labelCell)
		if human == "" && tag == "" {
			continue
		}

		kind := classifyRow(tag, human)
		rowScale := scale.Currency
		unit := data.UnitInfo{
			Type:     data.UnitCurrency,
			BaseUnit: baseCurrency,
			Source:   data.SourceFallback,
		}

		switch kind {
		case perShareRow:
			rowScale = 1
			unit.Type = data.UnitPerShare
		case sharesRow:
			rowScale = scale.Shares
			unit.Type = data.UnitShares
			unit.BaseUnit = "shares"
		}

		unit.ScaleApplied = rowScale
		if scale.Declared || titleCurrency != "" {
			unit.Source = data.SourceHeader
		}

		row := &data.RawRow{
			Label:      tag,
			HumanLabel: human,
			Values:     make([]float64, len(columns)),
			Reported:   make([]float64, len(columns)),
		}

		found := false
		for colIdx, col := range columns {
			row.Values[colIdx] = data.Missing
			row.Reported[colIdx] = data.Missing

			cell := cells.Eq(col.index + 1)
			if cell.Length() == 0 {
				continue
			}

			if v, ok := ParseNumber(cellText(cell)); ok {
				row.Reported[colIdx] = v
				row.Values[colIdx] = v * rowScale
				found = true
			}
		}

		// headings such as "Operating expenses:" carry no figures
		if !found {
			continue
		}

		class, _ := tr.Attr("class")
		row.Emphasis = strings.Contains(class, "reu") || strings.Contains(class, "rou")
		row.IsSum = row.Emphasis || totalRE.MatchString(human)

		raw.Rows = append(raw.Rows, row)
		if _, ok := raw.UnitMap[row.Label]; !ok {
			raw.UnitMap[row.Label] = unit
		}
	}

	if len(raw.Rows) == 0 {
		return nil, data.NewError(data.ErrMalformedFiling, "statement", nil, "statement %q has no rows with figures", title)
	}

	return raw, nil
}

// rowLabels returns the taxonomy tag (from the definition link) and the human readable label
func rowLabels(cell *goquery.Selection) (string, string) {
	clone := cell.Clone()
	clone.Find("sup").Remove()
	human := footnoteRE.ReplaceAllString(cellText(clone), "")
	human = strings.TrimSpace(human)

	tag := ""
	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		onclick, _ := a.Attr("onclick")
		if m := defrefRE.FindStringSubmatch(onclick); m != nil {
			tag = m[1]
			return false
		}
		return true
	})

	if tag == "" {
		tag = human
	}

	return tag, human
}
