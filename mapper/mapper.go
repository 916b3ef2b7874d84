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
package mapper

import (
	"math"
	"sort"

	"github.com/penny-vault/pvfin/calc"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/schema"
	"github.com/samber/lo"
)

// Oracle scores a candidate row against information outside the current filing
type Oracle interface {
	Score(concept string, columns []data.Column, values []float64) float64
}

// Candidate is a possible assignment of a raw row to a concept
type Candidate struct {
	Row      int
	Concept  *schema.Concept
	Order    int // position of the concept in the schema
	Score    float64
	Taxonomy bool
}

type Mapper struct {
	weights Weights
}

// New creates a mapper using the given weights
func New(weights Weights) *Mapper {
	return &Mapper{weights: weights}
}

// Map assigns raw rows to canonical concepts using DefaultWeights
func Map(raw *data.RawStatement, concepts []*schema.Concept, graph calc.Graph, oracle Oracle) *data.CanonicalStatement {
	return New(DefaultWeights).Map(raw, concepts, graph, oracle)
}

// MarkSums flags rows declared as parents in the calculation graph as sums
func MarkSums(raw *data.RawStatement, graph calc.Graph) {
	for _, row := range raw.Rows {
		if graph.IsParent(row.Label) {
			row.IsSum = true
		}
	}
}

// Map assigns each raw row to at most one concept. Each concept is filled from its best
// scoring candidate; ties go to the earlier row.
func (mapper *Mapper) Map(raw *data.RawStatement, concepts []*schema.Concept, graph calc.Graph, oracle Oracle) *data.CanonicalStatement {
	MarkSums(raw, graph)

	var all []*Candidate
	for rowIdx := range raw.Rows {
		all = append(all, mapper.Candidates(raw, rowIdx, concepts, graph, oracle)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Taxonomy != b.Taxonomy {
			return a.Taxonomy
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Order < b.Order
	})

	filled := make(map[*schema.Concept]*Candidate)
	assigned := make(map[int]bool)
	contested := make(map[*schema.Concept]bool)
	for _, candidate := range all {
		if winner, ok := filled[candidate.Concept]; ok {
			if candidate.Row != winner.Row && winner.Score-candidate.Score < mapper.weights.Margin {
				contested[candidate.Concept] = true
			}
			continue
		}
		if assigned[candidate.Row] {
			continue
		}

		filled[candidate.Concept] = candidate
		assigned[candidate.Row] = true
	}

	stmt := &data.CanonicalStatement{
		Type:    raw.Type,
		Filing:  raw.Filing,
		Columns: append([]data.Column{}, raw.Columns...),
	}

	for _, concept := range concepts {
		candidate, ok := filled[concept]
		if !ok {
			continue
		}

		row := raw.Rows[candidate.Row]
		stmt.Rows = append(stmt.Rows, &data.CanonicalRow{
			Name:   concept.Name,
			Source: row,
			Values: append([]float64{}, row.Values...),
			Unit:   raw.Unit(row),
			Score:  candidate.Score,
		})
	}

	for _, concept := range concepts {
		if contested[concept] {
			stmt.Uncertain = append(stmt.Uncertain, concept.Name)
		}
	}

	for rowIdx, row := range raw.Rows {
		if assigned[rowIdx] {
			continue
		}
		stmt.RawView = append(stmt.RawView, row)
		stmt.RawUnits = append(stmt.RawUnits, raw.Unit(row))
	}

	return stmt
}

// Candidates returns up to Weights.Candidates concepts for a row, best first
func (mapper *Mapper) Candidates(raw *data.RawStatement, rowIdx int, concepts []*schema.Concept, graph calc.Graph, oracle Oracle) []*Candidate {
	row := raw.Rows[rowIdx]
	unit := raw.Unit(row)

	var candidates []*Candidate
	for order, concept := range concepts {
		score := 0.0

		taxIdx, taxHit := concept.MatchTaxonomy(row.Label)
		if taxHit {
			score += mapper.weights.Taxonomy - float64(taxIdx)
		}

		humanIdx, humanHit := concept.MatchHuman(row.HumanLabel)
		if humanHit {
			score += mapper.weights.Human - float64(humanIdx)
		}

		if !taxHit && !humanHit {
			continue
		}

		if row.IsSum && concept.Subtotal {
			score += mapper.weights.DeclaredSum
		}

		if mapper.calcSumAgrees(raw, row, graph) || mapper.siblingSumAgrees(raw, rowIdx, concept) {
			score += mapper.weights.NumericSum
		}

		if oracle != nil {
			score += oracle.Score(concept.Name, raw.Columns, row.Values)
		}

		if !concept.SignAgrees(row.Values) {
			score += mapper.weights.SignDisagreement
		}

		if unit.Source == data.SourceVerified && unit.Type != concept.UnitType {
			score += mapper.weights.UnitMismatch
		}

		if score < mapper.weights.Threshold {
			continue
		}

		candidates = append(candidates, &Candidate{
			Row:      rowIdx,
			Concept:  concept,
			Order:    order,
			Score:    score,
			Taxonomy: taxHit,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Taxonomy && !candidates[j].Taxonomy
	})

	if len(candidates) > mapper.weights.Candidates {
		candidates = candidates[:mapper.weights.Candidates]
	}

	return candidates
}

// calcSumAgrees checks the row against the signed sum of its declared children
func (mapper *Mapper) calcSumAgrees(raw *data.RawStatement, row *data.RawRow, graph calc.Graph) bool {
	arcs := graph.Children(row.Label)
	if len(arcs) < 2 {
		return false
	}

	compared := 0
	for colIdx := range raw.Columns {
		if data.IsMissing(row.Values[colIdx]) {
			continue
		}

		total, found := graph.SignedSum(row.Label, func(tag string) (float64, bool) {
			if tag == row.Label {
				return 0, false
			}

			child, ok := lo.Find(raw.Rows, func(r *data.RawRow) bool {
				return r.Label == tag && !data.IsMissing(r.Values[colIdx])
			})
			if !ok {
				return 0, false
			}
			return child.Values[colIdx], true
		})

		if found < 2 {
			continue
		}

		if !mapper.close(total, row.Values[colIdx]) {
			return false
		}
		compared++
	}

	return compared > 0
}

// siblingSumAgrees checks whether the other non-total rows that match the concept's patterns
// add up to this row, which is how dimensional breakdowns (product / service) appear
func (mapper *Mapper) siblingSumAgrees(raw *data.RawStatement, rowIdx int, concept *schema.Concept) bool {
	siblings := lo.Filter(raw.Rows, func(r *data.RawRow, idx int) bool {
		if idx == rowIdx || r.IsSum {
			return false
		}
		_, taxHit := concept.MatchTaxonomy(r.Label)
		return taxHit
	})

	if len(siblings) < 2 {
		return false
	}

	row := raw.Rows[rowIdx]
	compared := 0
	for colIdx := range raw.Columns {
		if data.IsMissing(row.Values[colIdx]) {
			continue
		}

		total := 0.0
		present := 0
		for _, sibling := range siblings {
			if v := sibling.Values[colIdx]; !data.IsMissing(v) {
				total += v
				present++
			}
		}

		if present < 2 {
			continue
		}

		if !mapper.close(total, row.Values[colIdx]) {
			return false
		}
		compared++
	}

	return compared > 0
}

func (mapper *Mapper) close(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(a-b) <= mapper.weights.SumTolerance*scale
}
