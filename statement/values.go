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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvfin/data"
)

var (
	footnoteRE = regexp.MustCompile(`\[\d+\]`)
	dateRE     = regexp.MustCompile(`([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})`)
	isoDateRE  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

var monthNames = map[string]string{
	"jan":  "January",
	"feb":  "February",
	"mar":  "March",
	"apr":  "April",
	"may":  "May",
	"jun":  "June",
	"jul":  "July",
	"aug":  "August",
	"sep":  "September",
	"sept": "September",
	"oct":  "October",
	"nov":  "November",
	"dec":  "December",
}

// expandMonth turns an abbreviated month token (Sep., Sept) into its full name
func expandMonth(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSuffix(token, "."))
	if full, ok := monthNames[token]; ok {
		return full, true
	}

	if len(token) >= 3 {
		if full, ok := monthNames[token[:3]]; ok && strings.HasPrefix(strings.ToLower(full), token) {
			return full, true
		}
	}

	return "", false
}

// ParseDate finds a date such as "Sep. 28, 2024" or "2024-09-28" in s
func ParseDate(s string) (time.Time, error) {
	if m := dateRE.FindStringSubmatch(s); m != nil {
		if month, ok := expandMonth(m[1]); ok {
			return time.Parse("January 2, 2006", fmt.Sprintf("%s %s, %s", month, m[2], m[3]))
		}
	}

	if m := isoDateRE.FindString(s); m != "" {
		return time.Parse(data.DateFormat, m)
	}

	return time.Time{}, fmt.Errorf("no date found in %q", s)
}

// ParseNumber converts a printed table figure into a number. Blank cells and dashes are
// reported as missing.
func ParseNumber(s string) (float64, bool) {
	s = footnoteRE.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', '¥', '%', ' ', '\u00a0', '\t', '\n':
			return -1
		case '\u2212', '\u2013':
			return '-'
		}
		return r
	}, s)

	// drop currency codes or glyph prefixes such as "US$", "RMB", "HK$"
	s = strings.TrimLeft(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")

	if s == "" || s == "-" || s == "\u2014" || s == "--" {
		return data.Missing, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	} else if strings.HasPrefix(s, "(") {
		negative = true
		s = strings.TrimPrefix(s, "(")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return data.Missing, false
	}

	if negative {
		v = -v
	}

	return v, true
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}

	if n < 1 {
		return 0, fmt.Errorf("%d is not positive", n)
	}

	return n, nil
}
