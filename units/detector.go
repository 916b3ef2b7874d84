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
package units

import (
	"math"
	"regexp"
	"strings"

	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/schema"
)

// Scales are the multipliers issuers print tables in
var Scales = []float64{1, 1e3, 1e6, 1e9}

// periodSlack is how many days a fact's period may differ from a column's period
const periodSlack = 10

var currencyCodeRE = regexp.MustCompile(`^[A-Z]{3}$`)

// Detector assigns units to statement rows, verifying them against the issuer's company
// facts when possible
type Detector struct {
	facts *data.CompanyFacts
}

// New creates a detector backed by facts (which may be nil)
func New(facts *data.CompanyFacts) *Detector {
	return &Detector{facts: facts}
}

// Apply detects the unit of every row in raw, records it in the unit map and rewrites
// the row values in base units
func (detector *Detector) Apply(raw *data.RawStatement) {
	if raw.UnitMap == nil {
		raw.UnitMap = make(map[string]data.UnitInfo)
	}

	hints := make(map[string]data.UnitInfo, len(raw.UnitMap))
	for label, unit := range raw.UnitMap {
		hints[label] = unit
	}

	for _, row := range raw.Rows {
		hint, ok := hints[row.Label]
		if !ok {
			hint = data.FallbackUnit()
		}

		unit := detector.Detect(row.Label, row.HumanLabel, raw.Columns, row.Reported, hint)
		Normalize(row, unit)

		if existing, ok := raw.UnitMap[row.Label]; !ok || unit.Source.Rank() > existing.Source.Rank() {
			raw.UnitMap[row.Label] = unit
		}
	}
}

// Detect returns the unit of a row. reported holds the figures as printed (parallel to
// columns) and hint is the unit implied by the table header.
func (detector *Detector) Detect(label, humanLabel string, columns []data.Column, reported []float64, hint data.UnitInfo) data.UnitInfo {
	if unit, ok := detector.verify(label, columns, reported, hint); ok {
		return unit
	}

	if hint.Source == data.SourceHeader {
		return hint
	}

	unit := data.FallbackUnit()
	if hint.BaseUnit != "" && hint.Type == data.UnitCurrency {
		unit.BaseUnit = hint.BaseUnit
	}

	return unit
}

type vote struct {
	unit  data.UnitInfo
	count int
}

func (detector *Detector) verify(label string, columns []data.Column, reported []float64, hint data.UnitInfo) (data.UnitInfo, bool) {
	if detector.facts == nil || len(detector.facts.ByTag(label)) == 0 {
		return data.UnitInfo{}, false
	}

	scales := append([]float64{hint.ScaleApplied}, Scales...)

	var votes []*vote
	compared := 0
	for idx, col := range columns {
		if idx >= len(reported) || data.IsMissing(reported[idx]) || reported[idx] == 0 {
			continue
		}

		facts := detector.facts.Lookup(label, col.EndDate, col.Days, periodSlack)
		if len(facts) == 0 {
			continue
		}
		compared++

	factLoop:
		for _, fact := range facts {
			unitType, base, ok := ClassifyFactUnit(fact.Unit)
			if !ok {
				continue
			}

			for _, scale := range scales {
				if scale == 0 {
					continue
				}

				if Matches(reported[idx], scale, fact.Value) {
					votes = addVote(votes, data.UnitInfo{
						Type:         unitType,
						BaseUnit:     base,
						ScaleApplied: scale,
						Source:       data.SourceVerified,
					})
					break factLoop
				}
			}
		}
	}

	var best *vote
	for _, v := range votes {
		if best == nil || v.count > best.count {
			best = v
		}
	}

	if best == nil || best.count*2 < compared {
		return data.UnitInfo{}, false
	}

	return best.unit, true
}

func addVote(votes []*vote, unit data.UnitInfo) []*vote {
	for _, v := range votes {
		if v.unit == unit {
			v.count++
			return votes
		}
	}
	return append(votes, &vote{unit: unit, count: 1})
}

// Matches reports whether a printed figure at the given scale equals an issuer observation,
// allowing for rounding to the printed precision
func Matches(printed, scale, observed float64) bool {
	value := printed * scale
	tolerance := 0.5*scale + 1e-9*math.Abs(observed)
	if scale == 1 {
		// per share amounts are printed to the cent
		tolerance = 0.005 + 1e-9*math.Abs(observed)
	}
	return math.Abs(value-observed) <= tolerance
}

// ClassifyFactUnit maps a company facts unit key onto a unit type and base unit
func ClassifyFactUnit(unit string) (data.UnitType, string, bool) {
	switch {
	case unit == "shares":
		return data.UnitShares, "shares", true
	case unit == "pure":
		return data.UnitRatio, "pure", true
	case strings.HasSuffix(unit, "/shares"):
		base := strings.TrimSuffix(unit, "/shares")
		if currencyCodeRE.MatchString(base) {
			return data.UnitPerShare, base, true
		}
	case currencyCodeRE.MatchString(unit):
		return data.UnitCurrency, unit, true
	}
	return "", "", false
}

// Refine applies what the mapped concept says about the row when detection could not verify
// the unit
func Refine(unit data.UnitInfo, concept *schema.Concept) data.UnitInfo {
	if concept == nil || unit.Source == data.SourceVerified {
		return unit
	}

	if unit.Source == data.SourceHeader && unit.Type == concept.UnitType {
		return unit
	}

	refined := unit
	refined.Type = concept.UnitType
	refined.Source = data.SourceConcept

	switch concept.UnitType {
	case data.UnitPerShare:
		refined.ScaleApplied = 1
		if refined.BaseUnit == "" || refined.BaseUnit == "shares" {
			refined.BaseUnit = "USD"
		}
	case data.UnitShares:
		refined.BaseUnit = "shares"
	case data.UnitCurrency:
		if refined.BaseUnit == "" || refined.BaseUnit == "shares" {
			refined.BaseUnit = "USD"
		}
	}

	if refined.ScaleApplied == 0 {
		refined.ScaleApplied = 1
	}

	return refined
}

// Normalize rewrites the values of row in base units using the scale recorded in unit
func Normalize(row *data.RawRow, unit data.UnitInfo) {
	scale := unit.ScaleApplied
	if scale == 0 {
		scale = 1
	}

	for idx, printed := range row.Reported {
		if data.IsMissing(printed) {
			row.Values[idx] = data.Missing
			continue
		}
		row.Values[idx] = printed * scale
	}
}
