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
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/penny-vault/pvfin/data"
)

// Version is bumped whenever the catalog changes in a way that alters mapping results
const Version = 3

type Sign int

const (
	Either Sign = iota
	Positive
	Negative
)

func (sign Sign) String() string {
	switch sign {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	}
	return "either"
}

// Concept is an entry in the canonical schema
type Concept struct {
	Name             string
	Statement        data.StatementType
	TaxonomyPatterns []*regexp.Regexp
	HumanPatterns    []*regexp.Regexp
	Sign             Sign
	Aliases          []string
	Subtotal         bool
	UnitType         data.UnitType
}

// MatchTaxonomy returns the index of the first taxonomy pattern matching tag
func (concept *Concept) MatchTaxonomy(tag string) (int, bool) {
	return firstMatch(concept.TaxonomyPatterns, tag)
}

// MatchHuman returns the index of the first human label pattern matching label
func (concept *Concept) MatchHuman(label string) (int, bool) {
	return firstMatch(concept.HumanPatterns, strings.TrimSpace(label))
}

// SignAgrees reports whether the majority of the non-missing values have the expected sign
func (concept *Concept) SignAgrees(values []float64) bool {
	if concept.Sign == Either {
		return true
	}

	pos, neg := 0, 0
	for _, v := range values {
		switch {
		case data.IsMissing(v) || v == 0:
		case v > 0:
			pos++
		default:
			neg++
		}
	}

	if concept.Sign == Positive {
		return pos >= neg
	}
	return neg >= pos
}

func firstMatch(patterns []*regexp.Regexp, s string) (int, bool) {
	for idx, re := range patterns {
		if re.MatchString(s) {
			return idx, true
		}
	}
	return -1, false
}

// Schema is the closed catalog of concepts per statement type
type Schema struct {
	concepts map[data.StatementType][]*Concept
}

// New builds a schema from the given concepts. Concept names must be unique per statement.
func New(concepts ...*Concept) (*Schema, error) {
	schema := &Schema{
		concepts: make(map[data.StatementType][]*Concept),
	}

	seen := make(map[string]bool)
	for _, concept := range concepts {
		key := fmt.Sprintf("%s/%s", concept.Statement, concept.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate concept %s", key)
		}
		seen[key] = true
		schema.concepts[concept.Statement] = append(schema.concepts[concept.Statement], concept)
	}

	return schema, nil
}

var defaultSchema *Schema

// Default returns the built-in catalog
func Default() *Schema {
	return defaultSchema
}

func init() {
	var concepts []*Concept
	concepts = append(concepts, incomeConcepts()...)
	concepts = append(concepts, balanceConcepts()...)
	concepts = append(concepts, cashFlowConcepts()...)

	var err error
	defaultSchema, err = New(concepts...)
	if err != nil {
		panic(err)
	}
}

// Concepts returns the catalog for a statement type in presentation order
func (schema *Schema) Concepts(st data.StatementType) []*Concept {
	return schema.concepts[st]
}

// Lookup finds a concept by canonical name or alias (case insensitive)
func (schema *Schema) Lookup(st data.StatementType, name string) (*Concept, bool) {
	for _, concept := range schema.concepts[st] {
		if strings.EqualFold(concept.Name, name) {
			return concept, true
		}

		for _, alias := range concept.Aliases {
			if strings.EqualFold(alias, name) {
				return concept, true
			}
		}
	}

	return nil, false
}

// Names returns the canonical names for a statement type in presentation order
func (schema *Schema) Names(st data.StatementType) []string {
	concepts := schema.concepts[st]
	names := make([]string, len(concepts))
	for idx, concept := range concepts {
		names[idx] = concept.Name
	}
	return names
}

// gaap builds taxonomy patterns for standard us-gaap / ifrs-full element names
func gaap(names ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(names))
	for idx, name := range names {
		patterns[idx] = regexp.MustCompile(fmt.Sprintf(`(?i)^(?:us-gaap|ifrs-full)[_:]%s$`, name))
	}
	return patterns
}

// labels compiles case insensitive human label patterns
func labels(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for idx, expr := range exprs {
		patterns[idx] = regexp.MustCompile(`(?i)` + expr)
	}
	return patterns
}

// ext builds taxonomy patterns for company extension elements (aapl_..., tsla_...)
func ext(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for idx, expr := range exprs {
		patterns[idx] = regexp.MustCompile(fmt.Sprintf(`(?i)^[a-z][a-z0-9]*_%s$`, expr))
	}
	return patterns
}

func join(groups ...[]*regexp.Regexp) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}
