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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvfin/cache"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Cache: %s\n\n", myLibrary.store.Root())); err != nil {
		return "", err
	}

	var financials []*cache.Metadata
	var lastUpdated time.Time
	for _, ns := range cache.Namespaces {
		entries, err := myLibrary.store.List(ns)
		if err != nil {
			return "", err
		}

		if ns == cache.Financials {
			financials = entries
		}

		for _, entry := range entries {
			if entry.CreatedAt.After(lastUpdated) {
				lastUpdated = entry.CreatedAt
			}
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s: %d entries (ttl %s)\n", ns, len(entries), myLibrary.store.TTL(ns))); err != nil {
			return "", err
		}
	}

	tickers, err := myLibrary.ListTickers()
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Tickers: %d\n\n", len(tickers))); err != nil {
		return "", err
	}

	if lastUpdated.IsZero() {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastUpdated)
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	if _, err := builder.WriteString("## Financials\n\n"); err != nil {
		return "", err
	}

	for _, entry := range financials {
		ticker, pt, ok := parseFinancialsKey(entry.Key)
		if !ok {
			continue
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s %s, cached %s, expires %s (%d bytes)\n", ticker, pt,
			timeago.English.Format(entry.CreatedAt), entry.ExpiresAt.Local().Format("01/02/2006 15:04"), entry.Size)); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
