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

// Weights holds every scoring constant used when mapping raw rows onto the schema
type Weights struct {
	Taxonomy         float64 // taxonomy pattern hit, less the index of the pattern
	Human            float64 // human label pattern hit, less the index of the pattern
	DeclaredSum      float64 // row is a declared total and the concept is a subtotal
	NumericSum       float64 // row equals the signed sum of its children
	SignDisagreement float64
	UnitMismatch     float64 // verified unit type differs from the concept's
	Threshold        float64 // minimum score a candidate needs to be considered
	Candidates       int     // candidates kept per row
	SumTolerance     float64 // relative tolerance for sum checks
	Margin           float64 // a runner up this close to the winner makes the mapping uncertain
}

// DefaultWeights are the production scoring constants
var DefaultWeights = Weights{
	Taxonomy:         100,
	Human:            60,
	DeclaredSum:      15,
	NumericSum:       20,
	SignDisagreement: -10,
	UnitMismatch:     -80,
	Threshold:        50,
	Candidates:       3,
	SumTolerance:     0.01,
	Margin:           5,
}
