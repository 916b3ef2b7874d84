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
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvfin/data"
)

var (
	bucketRE       = regexp.MustCompile(`(?i)(\d+)\s+(months?|weeks?)\s+ended`)
	currencyRE     = regexp.MustCompile(`\b([A-Z]{3})\s*\(`)
	shareScaleRE   = regexp.MustCompile(`(?i)shares?( data)?( are)? in (thousands|millions|billions)`)
	generalScaleRE = regexp.MustCompile(`(?i)\bin (thousands|millions|billions)\b`)
	exceptCountRE  = regexp.MustCompile(`(?i)except (for )?(number of )?shares?\b|except share (data|amounts|counts)`)
)

// Scale describes the multipliers declared in a report title
type Scale struct {
	Currency float64
	Shares   float64
	Declared bool
}

func scaleFromWord(word string) float64 {
	switch strings.ToLower(word) {
	case "thousands":
		return 1e3
	case "millions":
		return 1e6
	case "billions":
		return 1e9
	}
	return 1
}

// ParseScale reads scale keywords from the text that follows the currency in a report title
func ParseScale(text string) Scale {
	scale := Scale{Currency: 1, Shares: 1}

	shareExplicit := false
	if m := shareScaleRE.FindStringSubmatch(text); m != nil {
		scale.Shares = scaleFromWord(m[3])
		scale.Declared = true
		shareExplicit = true
		text = strings.Replace(text, m[0], "", 1)
	}

	if m := generalScaleRE.FindStringSubmatch(text); m != nil {
		scale.Currency = scaleFromWord(m[1])
		scale.Declared = true
		if !shareExplicit && !exceptCountRE.MatchString(text) {
			scale.Shares = scale.Currency
		}
	}

	return scale
}

// headerColumn is one data column as described by the header rows
type headerColumn struct {
	index    int
	column   data.Column
	hasDate  bool
	bucket   string
	currency string
}

// periodDays converts a duration bucket ("12 Months Ended") ending on end into days
func periodDays(bucket string, end time.Time) int {
	m := bucketRE.FindStringSubmatch(bucket)
	if m == nil {
		return 0
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}

	if strings.HasPrefix(strings.ToLower(m[2]), "week") {
		return n * 7
	}

	start := end.AddDate(0, -n, 0)
	return int(end.Sub(start).Hours() / 24)
}

// buildColumns combines the expanded header rows into per column descriptors
func buildColumns(headerRows [][]string, numCols int, titleCurrency string) []*headerColumn {
	columns := make([]*headerColumn, numCols)
	for idx := range columns {
		columns[idx] = &headerColumn{index: idx}
	}

	for _, row := range headerRows {
		for idx := 0; idx < numCols && idx < len(row); idx++ {
			text := row[idx]
			col := columns[idx]

			if bucketRE.MatchString(text) && col.bucket == "" {
				col.bucket = text
			}

			if m := currencyRE.FindStringSubmatch(text); m != nil && col.currency == "" {
				col.currency = m[1]
			}

			if !col.hasDate {
				if dt, err := ParseDate(text); err == nil {
					col.column.EndDate = dt
					col.hasDate = true
				}
			}
		}
	}

	for _, col := range columns {
		if col.currency == "" {
			col.currency = titleCurrency
		}

		if col.currency == "" {
			col.currency = "USD"
		}

		col.column.Currency = col.currency
		if col.hasDate {
			col.column.Days = periodDays(col.bucket, col.column.EndDate)
		}
	}

	return columns
}

// selectColumns applies the periodicity and currency rules
func selectColumns(columns []*headerColumn, st data.StatementType, pt data.PeriodType, titleCurrency string) []*headerColumn {
	var byPeriod []*headerColumn
	for _, col := range columns {
		if !col.hasDate {
			continue
		}

		if !st.IsFlow() {
			col.column.Days = 0
			byPeriod = append(byPeriod, col)
			continue
		}

		days := col.column.Days
		switch pt {
		case data.Annual:
			if days >= 350 && days <= 380 {
				byPeriod = append(byPeriod, col)
			}
		case data.Quarterly:
			if days >= 85 && days <= 95 {
				byPeriod = append(byPeriod, col)
			}
		}
	}

	// majority currency; ties go to the currency named in the title
	counts := make(map[string]int)
	var order []string
	for _, col := range byPeriod {
		if counts[col.currency] == 0 {
			order = append(order, col.currency)
		}
		counts[col.currency]++
	}

	best := ""
	for _, currency := range order {
		switch {
		case best == "":
			best = currency
		case counts[currency] > counts[best]:
			best = currency
		case counts[currency] == counts[best] && currency == titleCurrency:
			best = currency
		}
	}

	var selected []*headerColumn
	seen := make(map[string]bool)
	for _, col := range byPeriod {
		if col.currency != best {
			continue
		}

		key := col.column.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		selected = append(selected, col)
	}

	return selected
}
