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
	"strings"
)

type UnitType string

const (
	UnitCurrency UnitType = "currency"
	UnitPerShare UnitType = "per_share"
	UnitShares   UnitType = "shares"
	UnitRatio    UnitType = "ratio"
	UnitCount    UnitType = "count"
)

type UnitSource string

const (
	SourceVerified UnitSource = "verified"
	SourceHeader   UnitSource = "header"
	SourceConcept  UnitSource = "concept"
	SourceFallback UnitSource = "fallback"
)

// Rank orders unit sources by trust; higher is better
func (src UnitSource) Rank() int {
	switch src {
	case SourceVerified:
		return 4
	case SourceHeader:
		return 3
	case SourceConcept:
		return 2
	case SourceFallback:
		return 1
	}
	return 0
}

// UnitInfo describes how the values of a row are measured. Stored values are always in
// BaseUnit; ScaleApplied is the multiplier the issuer used when printing the table so the
// original figures can be shown again (value / ScaleApplied).
type UnitInfo struct {
	Type         UnitType   `json:"unit_type"`
	BaseUnit     string     `json:"base_unit"`
	ScaleApplied float64    `json:"scale_applied"`
	Source       UnitSource `json:"source"`
}

// FallbackUnit is used when nothing better is known about a row
func FallbackUnit() UnitInfo {
	return UnitInfo{
		Type:         UnitCurrency,
		BaseUnit:     "USD",
		ScaleApplied: 1,
		Source:       SourceFallback,
	}
}

var scaleWords = map[float64]string{
	1e3: "thousands",
	1e6: "millions",
	1e9: "billions",
}

// ScaleWord returns the english word for a scale (thousands, millions, ...) or "" for 1
func ScaleWord(scale float64) string {
	return scaleWords[scale]
}

// String renders the unit for display, e.g. "USD, in millions" or "USD/share"
func (unit UnitInfo) String() string {
	var base string
	switch unit.Type {
	case UnitPerShare:
		base = fmt.Sprintf("%s/share", unit.BaseUnit)
	case UnitShares:
		base = "shares"
	case UnitRatio:
		base = "pure"
	case UnitCount:
		base = "count"
	default:
		base = unit.BaseUnit
	}

	if word := ScaleWord(unit.ScaleApplied); word != "" {
		return fmt.Sprintf("%s, in %s", base, word)
	}

	return base
}

// ParseUnit reverses String. The source of a parsed unit is unknown and reported as header.
func ParseUnit(s string) UnitInfo {
	unit := UnitInfo{
		Type:         UnitCurrency,
		BaseUnit:     "USD",
		ScaleApplied: 1,
		Source:       SourceHeader,
	}

	base, scale, found := strings.Cut(s, ", in ")
	if found {
		for k, v := range scaleWords {
			if v == strings.TrimSpace(scale) {
				unit.ScaleApplied = k
			}
		}
	}

	base = strings.TrimSpace(base)
	switch {
	case base == "shares":
		unit.Type = UnitShares
		unit.BaseUnit = "shares"
	case base == "pure":
		unit.Type = UnitRatio
		unit.BaseUnit = "pure"
	case base == "count":
		unit.Type = UnitCount
		unit.BaseUnit = "count"
	case strings.HasSuffix(base, "/share"):
		unit.Type = UnitPerShare
		unit.BaseUnit = strings.TrimSuffix(base, "/share")
	case base != "":
		unit.BaseUnit = base
	}

	return unit
}

// Additive reports whether values in this unit can be summed across periods
func (unit UnitInfo) Additive() bool {
	return unit.Type == UnitCurrency || unit.Type == UnitPerShare || unit.Type == UnitCount
}
