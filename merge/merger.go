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
package merge

import (
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/pvfin/data"
	"github.com/samber/lo"
)

// RawRowName is the name a raw row carries in the merged raw view. Rows from different
// filings are never unified, so the filing's report date is part of the name.
func RawRowName(row *data.RawRow, filing *data.Filing) string {
	label := row.HumanLabel
	if label == "" {
		label = row.Label
	}

	if filing == nil {
		return label
	}

	return fmt.Sprintf("%s [%s]", label, filing.ReportDate.Format(data.DateFormat))
}

func filingKey(stmt *data.CanonicalStatement) string {
	if stmt.Filing == nil {
		return fmt.Sprintf("%p", stmt)
	}
	return stmt.Filing.AccessionID
}

type cellSource struct {
	value      float64
	reportDate time.Time
	set        bool
}

// Merge combines canonical statements ordered newest filing first into a single matrix.
// When several filings report the same period the most recent one wins; filings with the
// same report date prefer the first non-zero value.
func Merge(statements []*data.CanonicalStatement, st data.StatementType) *data.MergedStatement {
	merged := &data.MergedStatement{Type: st}

	// the same filing listed twice contributes once
	statements = lo.UniqBy(lo.Filter(statements, func(stmt *data.CanonicalStatement, _ int) bool {
		return stmt != nil
	}), filingKey)

	if len(statements) == 0 {
		return merged
	}

	columns := make(map[string]data.Column)
	for _, stmt := range statements {
		if stmt.Filing != nil {
			merged.Sources = append(merged.Sources, stmt.Filing)
		}

		for _, col := range stmt.Columns {
			if _, ok := columns[col.Key()]; !ok {
				columns[col.Key()] = col
			}
		}
	}

	merged.Columns = lo.Values(columns)
	sort.Slice(merged.Columns, func(i, j int) bool {
		return merged.Columns[i].EndDate.After(merged.Columns[j].EndDate)
	})

	colIndex := make(map[string]int, len(merged.Columns))
	for idx, col := range merged.Columns {
		colIndex[col.Key()] = idx
	}

	// canonical view
	rowIndex := make(map[string]int)
	var cells [][]cellSource
	for _, stmt := range statements {
		reportDate := time.Time{}
		if stmt.Filing != nil {
			reportDate = stmt.Filing.ReportDate
		}

		for _, row := range stmt.Rows {
			rowIdx, ok := rowIndex[row.Name]
			if !ok {
				rowIdx = len(merged.RowNames)
				rowIndex[row.Name] = rowIdx
				merged.RowNames = append(merged.RowNames, row.Name)
				merged.Units = append(merged.Units, row.Unit)
				cells = append(cells, make([]cellSource, len(merged.Columns)))
			}

			for srcIdx, col := range stmt.Columns {
				v := row.Values[srcIdx]
				if data.IsMissing(v) {
					continue
				}

				cell := &cells[rowIdx][colIndex[col.Key()]]
				switch {
				case !cell.set:
					*cell = cellSource{value: v, reportDate: reportDate, set: true}
				case cell.reportDate.Equal(reportDate) && cell.value == 0 && v != 0:
					cell.value = v
				}
			}
		}
	}

	merged.Data = make([][]float64, len(merged.RowNames))
	for rowIdx := range merged.RowNames {
		merged.Data[rowIdx] = make([]float64, len(merged.Columns))
		for colIdx := range merged.Columns {
			cell := cells[rowIdx][colIdx]
			if cell.set {
				merged.Data[rowIdx][colIdx] = cell.value
			} else {
				merged.Data[rowIdx][colIdx] = data.Missing
			}
		}
	}

	mergeRaw(merged, statements, colIndex, rowIndex)

	return merged
}

// mergeRaw appends every filing's unmapped rows to the raw view
func mergeRaw(merged *data.MergedStatement, statements []*data.CanonicalStatement, colIndex map[string]int, canonical map[string]int) {
	seen := make(map[string]bool)
	for _, stmt := range statements {
		for rawIdx, row := range stmt.RawView {
			base := RawRowName(row, stmt.Filing)
			if _, clash := canonical[base]; clash {
				base += " (raw)"
			}

			name := base
			for n := 2; seen[name]; n++ {
				name = fmt.Sprintf("%s #%d", base, n)
			}
			seen[name] = true

			values := make([]float64, len(merged.Columns))
			for idx := range values {
				values[idx] = data.Missing
			}

			for srcIdx, col := range stmt.Columns {
				values[colIndex[col.Key()]] = row.Values[srcIdx]
			}

			unit := data.FallbackUnit()
			if rawIdx < len(stmt.RawUnits) {
				unit = stmt.RawUnits[rawIdx]
			}

			merged.RawRowNames = append(merged.RawRowNames, name)
			merged.RawData = append(merged.RawData, values)
			merged.RawUnits = append(merged.RawUnits, unit)
		}
	}
}
