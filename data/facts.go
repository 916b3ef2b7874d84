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
	"time"
)

// Fact is a single issuer reported observation from the company facts document
type Fact struct {
	Tag          string
	Start        time.Time
	End          time.Time
	Unit         string
	Value        float64
	Form         string
	Filed        time.Time
	FiscalPeriod string
	AccessionID  string
}

// IsInstant reports whether the fact was measured at a point in time
func (fact *Fact) IsInstant() bool {
	return fact.Start.IsZero()
}

// Days returns the length of the reporting period in days; instants are 0
func (fact *Fact) Days() int {
	if fact.IsInstant() {
		return 0
	}
	return int(fact.End.Sub(fact.Start).Hours()/24) + 1
}

// CompanyFacts is a flat fact table indexed by tag
type CompanyFacts struct {
	facts []*Fact
	byTag map[string][]*Fact
}

// NewCompanyFacts indexes the given facts
func NewCompanyFacts(facts []*Fact) *CompanyFacts {
	cf := &CompanyFacts{
		byTag: make(map[string][]*Fact),
	}

	for _, fact := range facts {
		cf.Add(fact)
	}

	return cf
}

// Add appends a fact to the table
func (cf *CompanyFacts) Add(fact *Fact) {
	if cf.byTag == nil {
		cf.byTag = make(map[string][]*Fact)
	}

	cf.facts = append(cf.facts, fact)
	cf.byTag[fact.Tag] = append(cf.byTag[fact.Tag], fact)
}

// Len returns the number of facts in the table
func (cf *CompanyFacts) Len() int {
	if cf == nil {
		return 0
	}
	return len(cf.facts)
}

// ByTag returns all observations reported for tag
func (cf *CompanyFacts) ByTag(tag string) []*Fact {
	if cf == nil {
		return nil
	}
	return cf.byTag[tag]
}

// Lookup returns the observations for tag whose period ends on end (same calendar day) and
// whose length is within slack days of days. A days value of 0 requests instants.
func (cf *CompanyFacts) Lookup(tag string, end time.Time, days int, slack int) []*Fact {
	var matches []*Fact
	for _, fact := range cf.ByTag(tag) {
		if !sameDay(fact.End, end) {
			continue
		}

		if days == 0 {
			if fact.IsInstant() {
				matches = append(matches, fact)
			}
			continue
		}

		if fact.IsInstant() {
			continue
		}

		diff := fact.Days() - days
		if diff < 0 {
			diff = -diff
		}

		if diff <= slack {
			matches = append(matches, fact)
		}
	}

	return matches
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
