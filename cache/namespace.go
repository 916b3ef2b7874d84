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
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

type Namespace string

const (
	Stock      Namespace = "Stock"
	Macro      Namespace = "Macro"
	AI         Namespace = "AI"
	Financials Namespace = "financials"
)

// Namespaces lists every namespace the store manages
var Namespaces = []Namespace{Stock, Macro, AI, Financials}

// DefaultTTL is how long entries in each namespace stay fresh
var DefaultTTL = map[Namespace]time.Duration{
	Financials: 7 * 24 * time.Hour,  // normalized statements change with new filings
	Stock:      time.Hour,           // market snapshots
	Macro:      24 * time.Hour,      // economic indicators
	AI:         30 * 24 * time.Hour, // model output
}

// ParseNamespace matches a namespace name case insensitively
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range Namespaces {
		if strings.EqualFold(string(ns), s) {
			return ns, nil
		}
	}
	return "", fmt.Errorf("unknown cache namespace %q", s)
}

func init() {
	// stems keep the case of tickers and series ids
	slug.Lowercase = false
}

// Key builds a human readable file stem from the semantic parameters of an entry,
// e.g. Key("historical", "AAPL", "1y") == "historical_AAPL_1y"
func Key(parts ...any) string {
	stems := make([]string, 0, len(parts))
	for _, part := range parts {
		s := fmt.Sprint(part)
		if b, ok := part.(bool); ok {
			s = "False"
			if b {
				s = "True"
			}
		}

		s = slug.Make(s)
		if s != "" {
			stems = append(stems, s)
		}
	}
	return strings.Join(stems, "_")
}
