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
package temporal

import (
	"math"

	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog"
)

// Scoring constants for cross-filing agreement
const (
	MatchBonus      = 10.0
	AllMatchBonus   = 15.0
	MismatchPenalty = -20.0
	ZeroPenalty     = -30.0
)

// DefaultTolerance accommodates restatements and rounding between filings
const DefaultTolerance = 0.10

// Result summarizes the comparison of one candidate row against prior filings
type Result struct {
	Score      float64
	Overlaps   int
	Matches    int
	Mismatches int
	Zeros      int
}

func (r Result) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("Score", r.Score)
	e.Int("Overlaps", r.Overlaps)
	e.Int("Matches", r.Matches)
	e.Int("Mismatches", r.Mismatches)
	e.Int("Zeros", r.Zeros)
}

// Validator compares candidate rows with the canonical statements of filings that were
// already processed (newer filings, newest first)
type Validator struct {
	prior     []*data.CanonicalStatement
	tolerance float64
}

// New creates a validator. A tolerance of 0 selects DefaultTolerance.
func New(prior []*data.CanonicalStatement, tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	return &Validator{
		prior:     prior,
		tolerance: tolerance,
	}
}

// Agree reports whether two non-zero values are within tolerance of the average of their
// absolute values
func Agree(a, b, tolerance float64) bool {
	avg := (math.Abs(a) + math.Abs(b)) / 2
	return math.Abs(a-b) <= tolerance*avg
}

// historical returns the most recent prior value for concept on the column's end date
func (validator *Validator) historical(concept string, col data.Column) (float64, bool) {
	for _, stmt := range validator.prior {
		if v, ok := stmt.Value(concept, col.EndDate); ok {
			return v, true
		}
	}
	return 0, false
}

// Validate scores values (parallel to columns) as the concept against prior filings
func (validator *Validator) Validate(concept string, columns []data.Column, values []float64) Result {
	var result Result
	if validator == nil {
		return result
	}

	for idx, col := range columns {
		if idx >= len(values) || data.IsMissing(values[idx]) {
			continue
		}

		hist, ok := validator.historical(concept, col)
		if !ok || hist == 0 {
			continue
		}

		current := values[idx]
		result.Overlaps++

		switch {
		case current == 0:
			result.Zeros++
			result.Score += ZeroPenalty
		case Agree(current, hist, validator.tolerance):
			result.Matches++
			result.Score += MatchBonus
		default:
			result.Mismatches++
			result.Score += MismatchPenalty
		}
	}

	if result.Matches > 0 && result.Matches == result.Overlaps {
		result.Score += AllMatchBonus
	}

	return result
}

// Score implements the mapper's temporal oracle
func (validator *Validator) Score(concept string, columns []data.Column, values []float64) float64 {
	return validator.Validate(concept, columns, values).Score
}
