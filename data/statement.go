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
	"math"
	"time"
)

// DateFormat is the layout used for period end dates in cached documents
const DateFormat = "2006-01-02"

// Column describes one reporting period of a statement
type Column struct {
	EndDate  time.Time `json:"end_date"`
	Days     int       `json:"days"`
	Currency string    `json:"currency"`
}

// Key returns the end date formatted for use as a map key
func (col Column) Key() string {
	return col.EndDate.Format(DateFormat)
}

// Missing is the in-memory representation of a cell the issuer did not report
var Missing = math.NaN()

// IsMissing reports whether v is the missing marker
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// RawRow is a single line of a statement exactly as the issuer labelled it
type RawRow struct {
	Label      string    // taxonomy tag, company specific tag, or plain text
	HumanLabel string    // rendered label
	Values     []float64 // base units, parallel to the statement columns
	Reported   []float64 // figures as printed in the table
	IsSum      bool
	Emphasis   bool // underlined or labelled as a total in the report
}

// RawStatement is one statement table extracted from one filing
type RawStatement struct {
	Type    StatementType
	Filing  *Filing
	Title   string
	Columns []Column
	Rows    []*RawRow
	UnitMap map[string]UnitInfo // keyed by row label
}

// RowLabels returns the tag of every row in statement order
func (raw *RawStatement) RowLabels() []string {
	labels := make([]string, len(raw.Rows))
	for idx, row := range raw.Rows {
		labels[idx] = row.Label
	}
	return labels
}

// HumanLabels returns the rendered label of every row in statement order
func (raw *RawStatement) HumanLabels() []string {
	labels := make([]string, len(raw.Rows))
	for idx, row := range raw.Rows {
		labels[idx] = row.HumanLabel
	}
	return labels
}

// SumRows returns the rows flagged as totals or subtotals
func (raw *RawStatement) SumRows() []*RawRow {
	var sums []*RawRow
	for _, row := range raw.Rows {
		if row.IsSum {
			sums = append(sums, row)
		}
	}
	return sums
}

// Unit returns the unit assigned to row, or the fallback unit
func (raw *RawStatement) Unit(row *RawRow) UnitInfo {
	if unit, ok := raw.UnitMap[row.Label]; ok {
		return unit
	}
	return FallbackUnit()
}

// CanonicalRow is a raw row assigned to a concept of the canonical schema
type CanonicalRow struct {
	Name   string
	Source *RawRow
	Values []float64
	Unit   UnitInfo
	Score  float64
}

// CanonicalStatement is the result of mapping a RawStatement onto the canonical schema
type CanonicalStatement struct {
	Type      StatementType
	Filing    *Filing
	Columns   []Column
	Rows      []*CanonicalRow
	RawView   []*RawRow
	RawUnits  []UnitInfo // parallel to RawView
	Uncertain []string   // concepts whose runner up scored within the mapper's margin
}

// Row returns the canonical row with the given name
func (cs *CanonicalStatement) Row(name string) (*CanonicalRow, bool) {
	for _, row := range cs.Rows {
		if row.Name == name {
			return row, true
		}
	}
	return nil, false
}

// Value returns the value of the named concept for the period ending on end
func (cs *CanonicalStatement) Value(name string, end time.Time) (float64, bool) {
	row, ok := cs.Row(name)
	if !ok {
		return 0, false
	}

	for idx, col := range cs.Columns {
		if sameDay(col.EndDate, end) {
			v := row.Values[idx]
			return v, !IsMissing(v)
		}
	}

	return 0, false
}

// Adjustment records a decision made by the quarterly adjuster
type Adjustment struct {
	Statement StatementType `json:"statement" toml:"statement"`
	Row       string        `json:"row" toml:"row"`
	Date      string        `json:"date" toml:"date"`
	Original  float64       `json:"original" toml:"original"`
	Adjusted  float64       `json:"adjusted" toml:"adjusted"`
	Applied   bool          `json:"applied" toml:"applied"`
	Reason    string        `json:"reason" toml:"reason"`
}

// MergedStatement is the union of every filing's statement of one type
type MergedStatement struct {
	Type        StatementType
	Columns     []Column // strictly decreasing by end date
	RowNames    []string
	Data        [][]float64
	Units       []UnitInfo
	RawRowNames []string
	RawData     [][]float64
	RawUnits    []UnitInfo
	Sources     []*Filing
	Adjustments []Adjustment
}

// Empty reports whether the statement has no canonical or raw rows
func (ms *MergedStatement) Empty() bool {
	return ms == nil || len(ms.Columns) == 0 || (len(ms.RowNames) == 0 && len(ms.RawRowNames) == 0)
}

// RowIndex returns the position of the named canonical row or -1
func (ms *MergedStatement) RowIndex(name string) int {
	for idx, rowName := range ms.RowNames {
		if rowName == name {
			return idx
		}
	}
	return -1
}
