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
package calc

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/penny-vault/pvfin/data"
)

// Arc is a weighted edge from a parent fact to one of its children
type Arc struct {
	Child  string
	Weight float64
	Order  float64
}

// Graph maps a parent tag to the ordered list of its children. A tag may be the child of
// several parents.
type Graph map[string][]Arc

var (
	locPrefix  = regexp.MustCompile(`^loc_`)
	locSuffix  = regexp.MustCompile(`_(\d+|[0-9a-f]{8,}(-[0-9a-f]{4,}){0,4})$`)
	tagPattern = regexp.MustCompile(`^[A-Za-z][\w-]*_[A-Za-z]\w*`)
)

// NormalizeTag converts a linkbase locator label or href into the tag form used by the
// statement reports (us-gaap_Revenues)
func NormalizeTag(s string) string {
	if idx := strings.LastIndex(s, "#"); idx >= 0 {
		s = s[idx+1:]
	}

	s = locPrefix.ReplaceAllString(s, "")
	for locSuffix.MatchString(s) {
		stripped := locSuffix.ReplaceAllString(s, "")
		if !tagPattern.MatchString(stripped) {
			break
		}
		s = stripped
	}

	return strings.Replace(s, ":", "_", 1)
}

// Parse reads an XBRL calculation linkbase. An empty document yields an empty graph.
func Parse(calXML []byte) (Graph, error) {
	graph := make(Graph)
	if len(bytes.TrimSpace(calXML)) == 0 {
		return graph, nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(calXML))
	if err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, "calc", err, "could not parse calculation linkbase")
	}

	links, err := xmlquery.QueryAll(doc, "//*[local-name()='calculationLink']")
	if err != nil {
		return nil, fmt.Errorf("calculation link query failed: %w", err)
	}

	for _, link := range links {
		locators := make(map[string]string)
		for _, loc := range xmlquery.Find(link, "./*[local-name()='loc']") {
			label := attr(loc, "label")
			href := attr(loc, "href")
			if href != "" {
				locators[label] = NormalizeTag(href)
			} else {
				locators[label] = NormalizeTag(label)
			}
		}

		children := make(map[string][]Arc)
		var parents []string
		for _, arc := range xmlquery.Find(link, "./*[local-name()='calculationArc']") {
			from := resolve(locators, attr(arc, "from"))
			to := resolve(locators, attr(arc, "to"))
			if from == "" || to == "" {
				continue
			}

			weight, err := strconv.ParseFloat(strings.TrimSpace(attr(arc, "weight")), 64)
			if err != nil {
				weight = 1
			}

			order, err := strconv.ParseFloat(strings.TrimSpace(attr(arc, "order")), 64)
			if err != nil {
				order = float64(len(children[from]) + 1)
			}

			if _, ok := children[from]; !ok {
				parents = append(parents, from)
			}

			children[from] = append(children[from], Arc{Child: to, Weight: sign(weight), Order: order})
		}

		for _, parent := range parents {
			arcs := children[parent]
			sort.SliceStable(arcs, func(i, j int) bool {
				return arcs[i].Order < arcs[j].Order
			})

			// the same parent may appear in several extended links; keep the fullest
			if existing, ok := graph[parent]; !ok || len(arcs) > len(existing) {
				graph[parent] = arcs
			}
		}
	}

	return graph, nil
}

func resolve(locators map[string]string, label string) string {
	if tag, ok := locators[label]; ok {
		return tag
	}

	if label == "" {
		return ""
	}

	return NormalizeTag(label)
}

func sign(weight float64) float64 {
	if weight < 0 {
		return -1
	}
	return 1
}

func attr(node *xmlquery.Node, local string) string {
	for _, a := range node.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Children returns the ordered children of parent
func (graph Graph) Children(parent string) []Arc {
	return graph[parent]
}

// IsParent reports whether tag is declared as the sum of other facts
func (graph Graph) IsParent(tag string) bool {
	return len(graph[tag]) > 0
}

// Parents returns every parent that lists tag as a child, sorted for determinism
func (graph Graph) Parents(tag string) []string {
	var parents []string
	for parent, arcs := range graph {
		for _, arc := range arcs {
			if arc.Child == tag {
				parents = append(parents, parent)
				break
			}
		}
	}

	sort.Strings(parents)
	return parents
}

// Weight returns the weight of the arc from parent to child and whether it exists
func (graph Graph) Weight(parent, child string) (float64, bool) {
	for _, arc := range graph[parent] {
		if arc.Child == child {
			return arc.Weight, true
		}
	}
	return 0, false
}

// SignedSum adds up the weighted values of the children of parent. valueOf returns the value
// of a child tag and whether it is known; the sum is only reported when at least one child
// is known.
func (graph Graph) SignedSum(parent string, valueOf func(tag string) (float64, bool)) (float64, int) {
	total := 0.0
	found := 0
	for _, arc := range graph[parent] {
		if v, ok := valueOf(arc.Child); ok {
			total += arc.Weight * v
			found++
		}
	}
	return total, found
}

// AggregatesPeriods reports whether tag is a flow that can be summed across periods. Facts
// declared as children of a balance identity (Assets, LiabilitiesAndStockholdersEquity) are
// point in time values.
func (graph Graph) AggregatesPeriods(tag string) bool {
	seen := map[string]bool{}
	queue := []string{tag}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true

		switch current {
		case "us-gaap_Assets", "us-gaap_LiabilitiesAndStockholdersEquity", "ifrs-full_Assets", "ifrs-full_EquityAndLiabilities":
			return false
		}

		queue = append(queue, graph.Parents(current)...)
	}
	return true
}
