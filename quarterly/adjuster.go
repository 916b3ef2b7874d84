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
package quarterly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pvfin/data"
)

// DefaultTolerance is how close a Q4 value must be to the annual total to be treated as
// cumulative
const DefaultTolerance = 0.05

// fiscalSlack absorbs 52/53 week fiscal calendars that end near, not on, the nominal date
const fiscalSlack = 10 * 24 * time.Hour

// AnnualLookup returns the issuer's full year value for a row on a fiscal year end date
type AnnualLookup func(row string, end time.Time) (float64, bool)

type Adjuster struct {
	tolerance  float64
	month      time.Month
	day        int
	annual     AnnualLookup
	aggregates func(row string) bool
}

type Option func(*Adjuster)

// WithAnnualReference supplies issuer reported annual figures used to confirm a cumulative Q4
func WithAnnualReference(lookup AnnualLookup) Option {
	return func(adjuster *Adjuster) {
		adjuster.annual = lookup
	}
}

// WithAggregates restricts adjustment to rows for which fn returns true
func WithAggregates(fn func(row string) bool) Option {
	return func(adjuster *Adjuster) {
		adjuster.aggregates = fn
	}
}

// New creates an adjuster for a company whose fiscal year ends on fiscalYearEnd (MMDD)
func New(tolerance float64, fiscalYearEnd string, opts ...Option) *Adjuster {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	month, day := data.ParseFiscalYearEnd(fiscalYearEnd)
	adjuster := &Adjuster{
		tolerance: tolerance,
		month:     month,
		day:       day,
	}

	for _, opt := range opts {
		opt(adjuster)
	}

	return adjuster
}

// fiscalYearEnd returns the close of the fiscal year containing end. A 52/53-week year may
// close a few days after the nominal date, so a close in the previous calendar year is
// considered as well.
func (adjuster *Adjuster) fiscalYearEnd(end time.Time) time.Time {
	for _, year := range []int{end.Year() - 1, end.Year()} {
		candidate := clampedDate(year, adjuster.month, adjuster.day, end.Location())
		if !end.After(candidate.Add(fiscalSlack)) {
			return candidate
		}
	}
	return clampedDate(end.Year()+1, adjuster.month, adjuster.day, end.Location())
}

func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

type fiscalYear struct {
	end      time.Time
	q4       int
	quarters []int
}

// group assigns each column to a fiscal year and identifies its fourth quarter
func (adjuster *Adjuster) group(columns []data.Column) []*fiscalYear {
	years := make(map[time.Time]*fiscalYear)
	var order []time.Time

	for idx, col := range columns {
		fyEnd := adjuster.fiscalYearEnd(col.EndDate)
		fy, ok := years[fyEnd]
		if !ok {
			fy = &fiscalYear{end: fyEnd, q4: -1}
			years[fyEnd] = fy
			order = append(order, fyEnd)
		}

		if abs(col.EndDate.Sub(fyEnd)) <= fiscalSlack && fy.q4 < 0 {
			fy.q4 = idx
			continue
		}

		fy.quarters = append(fy.quarters, idx)
	}

	groups := make([]*fiscalYear, 0, len(order))
	for _, key := range order {
		fy := years[key]
		sort.SliceStable(fy.quarters, func(i, j int) bool {
			return columns[fy.quarters[i]].EndDate.Before(columns[fy.quarters[j]].EndDate)
		})

		// only the three quarters preceding Q4 belong to the year
		if len(fy.quarters) > 3 {
			fy.quarters = fy.quarters[len(fy.quarters)-3:]
		}

		groups = append(groups, fy)
	}

	return groups
}

// Cumulative reports whether q4 looks like a full year total given the three preceding
// quarters. When the issuer's annual figure is known it decides; otherwise Q4 must be at
// least as large as the first three quarters combined (less tolerance) with the same sign.
func (adjuster *Adjuster) Cumulative(q4, priorSum float64, annual float64, haveAnnual bool) bool {
	if haveAnnual && annual != 0 {
		return math.Abs(q4-annual) <= adjuster.tolerance*math.Abs(annual)
	}

	if priorSum == 0 || q4 == 0 || math.Signbit(q4) != math.Signbit(priorSum) {
		return false
	}

	return math.Abs(q4) >= (1-adjuster.tolerance)*math.Abs(priorSum)
}

// Adjust converts cumulative Q4 values of flow statements into discrete quarters, modifying
// ms in place. Every decision is appended to ms.Adjustments and returned.
func (adjuster *Adjuster) Adjust(ms *data.MergedStatement) []data.Adjustment {
	if ms == nil || !ms.Type.IsFlow() || len(ms.Columns) == 0 {
		return nil
	}

	var adjustments []data.Adjustment
	for _, fy := range adjuster.group(ms.Columns) {
		if fy.q4 < 0 {
			continue
		}

		q4Date := ms.Columns[fy.q4].EndDate

		for rowIdx, rowName := range ms.RowNames {
			if rowIdx < len(ms.Units) && !ms.Units[rowIdx].Additive() {
				continue
			}

			if adjuster.aggregates != nil && !adjuster.aggregates(rowName) {
				continue
			}

			q4 := ms.Data[rowIdx][fy.q4]
			if data.IsMissing(q4) {
				continue
			}

			priorSum := 0.0
			available := 0
			for _, colIdx := range fy.quarters {
				if v := ms.Data[rowIdx][colIdx]; !data.IsMissing(v) {
					priorSum += v
					available++
				}
			}

			annual, haveAnnual := 0.0, false
			if adjuster.annual != nil {
				annual, haveAnnual = adjuster.annual(rowName, q4Date)
			}

			if available < 3 {
				// scale the quarters we have up to three to judge whether Q4 looks cumulative
				looksCumulative := haveAnnual && adjuster.Cumulative(q4, 0, annual, true)
				if !haveAnnual && available > 0 {
					looksCumulative = adjuster.Cumulative(q4, priorSum*3/float64(available), 0, false)
				}

				if looksCumulative {
					adjustments = append(adjustments, data.Adjustment{
						Statement: ms.Type,
						Row:       rowName,
						Date:      q4Date.Format(data.DateFormat),
						Original:  q4,
						Adjusted:  q4,
						Applied:   false,
						Reason:    fmt.Sprintf("%s: only %d of 3 prior quarters available", data.ErrAmbiguousAdjustment, available),
					})
				}
				continue
			}

			if !adjuster.Cumulative(q4, priorSum, annual, haveAnnual) {
				continue
			}

			adjusted := q4 - priorSum
			ms.Data[rowIdx][fy.q4] = adjusted
			adjustments = append(adjustments, data.Adjustment{
				Statement: ms.Type,
				Row:       rowName,
				Date:      q4Date.Format(data.DateFormat),
				Original:  q4,
				Adjusted:  adjusted,
				Applied:   true,
				Reason:    "cumulative fiscal year value reported as Q4",
			})
		}
	}

	ms.Adjustments = append(ms.Adjustments, adjustments...)
	return adjustments
}
