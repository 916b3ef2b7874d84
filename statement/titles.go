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
package statement

import (
	"regexp"
	"strings"

	"github.com/penny-vault/pvfin/data"
)

var acceptedTitles = map[data.StatementType][]*regexp.Regexp{
	data.IncomeStatement: {
		regexp.MustCompile(`statements? of (consolidated )?(operations|income|earnings)\b`),
		regexp.MustCompile(`\bincome statements?\b`),
		regexp.MustCompile(`statements? of profit or loss`),
		regexp.MustCompile(`statements? of (operations|income) and comprehensive`),
	},
	data.BalanceSheet: {
		regexp.MustCompile(`\bbalance sheets?\b`),
		regexp.MustCompile(`statements? of financial (position|condition)`),
		regexp.MustCompile(`statements? of condition`),
	},
	data.CashFlow: {
		regexp.MustCompile(`statements? of cash flows?`),
		regexp.MustCompile(`\bcash flows? statements?\b`),
	},
}

var (
	rejectedTitle = regexp.MustCompile(`parenthetical|\(details|\(tables\)|\(policies\)`)
	titleSplit    = regexp.MustCompile(`^(.*?)\s+-\s+([A-Z]{3})\s*\(([^)]*)\)\s*(.*)$`)
	spaceRE       = regexp.MustCompile(`\s+`)
)

// titleParts splits a report title such as
// "CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) shares in Thousands, $ in Millions"
// into the statement name, the currency code and the remaining scale text
func titleParts(title string) (name, currency, rest string) {
	title = spaceRE.ReplaceAllString(strings.TrimSpace(title), " ")
	if m := titleSplit.FindStringSubmatch(title); m != nil {
		return m[1], m[2], m[4]
	}
	return title, "", ""
}

// MatchTitle reports whether a report title names the requested statement type
func MatchTitle(title string, st data.StatementType) bool {
	name, _, _ := titleParts(title)
	normalized := strings.ToLower(name)
	if rejectedTitle.MatchString(normalized) {
		return false
	}

	for _, re := range acceptedTitles[st] {
		if re.MatchString(normalized) {
			return true
		}
	}

	return false
}
