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
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Matrix is a row-major table of values. Missing cells are NaN in memory and null on disk.
type Matrix [][]float64

func (m Matrix) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64*len(m))
	buf = append(buf, '[')
	for rowIdx, row := range m {
		if rowIdx > 0 {
			buf = append(buf, ',')
		}

		buf = append(buf, '[')
		for colIdx, v := range row {
			if colIdx > 0 {
				buf = append(buf, ',')
			}

			if math.IsNaN(v) || math.IsInf(v, 0) {
				buf = append(buf, "null"...)
				continue
			}

			buf = strconv.AppendFloat(buf, v, 'f', -1, 64)
		}
		buf = append(buf, ']')
	}
	buf = append(buf, ']')

	return buf, nil
}

func (m *Matrix) UnmarshalJSON(b []byte) error {
	var cells [][]*float64
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}

	out := make(Matrix, len(cells))
	for rowIdx, row := range cells {
		out[rowIdx] = make([]float64, len(row))
		for colIdx, cell := range row {
			if cell == nil {
				out[rowIdx][colIdx] = Missing
				continue
			}
			out[rowIdx][colIdx] = *cell
		}
	}

	*m = out
	return nil
}

// StatementDocument is the cached form of one merged statement
type StatementDocument struct {
	Available   bool     `json:"available"`
	Columns     []string `json:"columns"`
	Currencies  []string `json:"currencies,omitempty"`
	RowNames    []string `json:"row_names"`
	Data        Matrix   `json:"data"`
	RawRowNames []string `json:"raw_row_names"`
	RawData     Matrix   `json:"raw_data"`
	Units       []string `json:"units"`
	RawUnits    []string `json:"raw_units,omitempty"`
}

// DocumentMetadata describes how and when a financials document was produced
type DocumentMetadata struct {
	CreatedAt          time.Time    `json:"created_at"`
	ExpiresAt          time.Time    `json:"expires_at"`
	PipelineVersion    string       `json:"pipeline_version"`
	SchemaVersion      int          `json:"schema_version"`
	RunID              string       `json:"run_id,omitempty"`
	CIK                string       `json:"cik"`
	CompanyName        string       `json:"company_name"`
	FiscalYearEnd      string       `json:"fiscal_year_end,omitempty"`
	Filings            []*Filing    `json:"filings"`
	AdjustmentsApplied []Adjustment `json:"adjustments_applied"`
	QuarterlyAdjusted  bool         `json:"quarterly_adjusted"`
}

// FinancialsDocument is the cached result of one normalization run for a ticker and periodicity
type FinancialsDocument struct {
	Ticker     string                               `json:"ticker"`
	PeriodType PeriodType                           `json:"period_type"`
	CachedAt   time.Time                            `json:"cached_at"`
	Metadata   DocumentMetadata                     `json:"metadata"`
	Statements map[StatementType]*StatementDocument `json:"statements"`
}

// Available reports whether at least one statement carries data
func (doc *FinancialsDocument) Available() bool {
	if doc == nil {
		return false
	}

	for _, stmt := range doc.Statements {
		if stmt != nil && stmt.Available {
			return true
		}
	}

	return false
}

// Validate checks the shape invariants of every statement in the document
func (doc *FinancialsDocument) Validate() error {
	for _, st := range StatementTypes {
		stmt, ok := doc.Statements[st]
		if !ok || stmt == nil {
			return fmt.Errorf("%w: statement %s missing from document", ErrInvalidValue, st)
		}

		if err := stmt.Validate(); err != nil {
			return fmt.Errorf("%s: %w", st, err)
		}
	}

	return nil
}

// Validate checks that the matrices agree with their row and column labels and that the
// columns are strictly decreasing
func (stmt *StatementDocument) Validate() error {
	if len(stmt.RowNames) != len(stmt.Data) {
		return fmt.Errorf("%w: %d row names for %d data rows", ErrInvalidValue, len(stmt.RowNames), len(stmt.Data))
	}

	if len(stmt.RawRowNames) != len(stmt.RawData) {
		return fmt.Errorf("%w: %d raw row names for %d raw data rows", ErrInvalidValue, len(stmt.RawRowNames), len(stmt.RawData))
	}

	if len(stmt.Units) != len(stmt.RowNames) {
		return fmt.Errorf("%w: %d units for %d rows", ErrInvalidValue, len(stmt.Units), len(stmt.RowNames))
	}

	for _, matrix := range []Matrix{stmt.Data, stmt.RawData} {
		for _, row := range matrix {
			if len(row) != len(stmt.Columns) {
				return fmt.Errorf("%w: row has %d cells for %d columns", ErrInvalidValue, len(row), len(stmt.Columns))
			}
		}
	}

	var prev time.Time
	for idx, col := range stmt.Columns {
		dt, err := time.Parse(DateFormat, col)
		if err != nil {
			return fmt.Errorf("%w: column %q is not a date", ErrInvalidValue, col)
		}

		if idx > 0 && !dt.Before(prev) {
			return fmt.Errorf("%w: columns are not strictly decreasing at %s", ErrInvalidValue, col)
		}
		prev = dt
	}

	seen := make(map[string]bool, len(stmt.RowNames))
	for _, name := range stmt.RowNames {
		seen[name] = true
	}

	for _, name := range stmt.RawRowNames {
		if seen[name] {
			return fmt.Errorf("%w: row %q appears in both the canonical and raw views", ErrInvalidValue, name)
		}
	}

	return nil
}

// NewStatementDocument converts a merged statement into its cached form
func NewStatementDocument(ms *MergedStatement) *StatementDocument {
	stmt := &StatementDocument{
		Columns:     []string{},
		RowNames:    []string{},
		Data:        Matrix{},
		RawRowNames: []string{},
		RawData:     Matrix{},
		Units:       []string{},
	}

	if ms.Empty() {
		return stmt
	}

	stmt.Available = true
	for _, col := range ms.Columns {
		stmt.Columns = append(stmt.Columns, col.Key())
		stmt.Currencies = append(stmt.Currencies, col.Currency)
	}

	stmt.RowNames = append(stmt.RowNames, ms.RowNames...)
	stmt.Data = copyMatrix(ms.Data)
	stmt.RawRowNames = append(stmt.RawRowNames, ms.RawRowNames...)
	stmt.RawData = copyMatrix(ms.RawData)

	for _, unit := range ms.Units {
		stmt.Units = append(stmt.Units, unit.String())
	}

	for _, unit := range ms.RawUnits {
		stmt.RawUnits = append(stmt.RawUnits, unit.String())
	}

	return stmt
}

// Merged converts a cached statement back into a MergedStatement. Column lengths are not
// known on disk and are reported as zero.
func (stmt *StatementDocument) Merged(st StatementType) (*MergedStatement, error) {
	ms := &MergedStatement{
		Type:        st,
		RowNames:    append([]string{}, stmt.RowNames...),
		Data:        copyMatrix(stmt.Data),
		RawRowNames: append([]string{}, stmt.RawRowNames...),
		RawData:     copyMatrix(stmt.RawData),
	}

	for idx, col := range stmt.Columns {
		dt, err := time.Parse(DateFormat, col)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q is not a date", ErrCacheCorrupt, col)
		}

		column := Column{EndDate: dt}
		if idx < len(stmt.Currencies) {
			column.Currency = stmt.Currencies[idx]
		}
		ms.Columns = append(ms.Columns, column)
	}

	for _, unit := range stmt.Units {
		ms.Units = append(ms.Units, ParseUnit(unit))
	}

	for _, unit := range stmt.RawUnits {
		ms.RawUnits = append(ms.RawUnits, ParseUnit(unit))
	}

	return ms, nil
}

// Value returns the canonical value for row name and column date (YYYY-MM-DD)
func (stmt *StatementDocument) Value(name string, date string) (float64, bool) {
	rowIdx := -1
	for idx, rowName := range stmt.RowNames {
		if rowName == name {
			rowIdx = idx
			break
		}
	}

	if rowIdx < 0 {
		return 0, false
	}

	for colIdx, col := range stmt.Columns {
		if col == date {
			v := stmt.Data[rowIdx][colIdx]
			return v, !IsMissing(v)
		}
	}

	return 0, false
}

func copyMatrix(m [][]float64) Matrix {
	out := make(Matrix, len(m))
	for idx, row := range m {
		out[idx] = append([]float64{}, row...)
	}
	return out
}
