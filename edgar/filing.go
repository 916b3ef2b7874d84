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
package edgar

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog"
)

const (
	indexFile   = "index.json"
	summaryFile = "FilingSummary.xml"
)

var (
	statementReportRE = regexp.MustCompile(`(?i)balance sheet|financial (position|condition)|operations|income|earnings|comprehensive|cash flows?`)
	excludedReportRE  = regexp.MustCompile(`(?i)parenthetical|details?\b|tables?\b|policies|equity|stockholders|shareholders`)
)

type directoryIndex struct {
	Directory struct {
		Item []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"item"`
	} `json:"directory"`
}

// Report is an entry in FilingSummary.xml
type Report struct {
	ShortName    string
	LongName     string
	HTMLFileName string
	MenuCategory string
}

// IsStatement reports whether the report renders one of the primary financial statements
func (report *Report) IsStatement() bool {
	if report.HTMLFileName == "" {
		return false
	}

	if report.MenuCategory != "" && !strings.EqualFold(report.MenuCategory, "Statements") {
		return false
	}

	name := report.ShortName
	if name == "" {
		name = report.LongName
	}

	return statementReportRE.MatchString(name) && !excludedReportRE.MatchString(name)
}

// ParseFilingSummary lists the reports rendered for a filing
func ParseFilingSummary(body []byte) ([]*Report, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, component, err, "could not parse %s", summaryFile)
	}

	nodes, err := xmlquery.QueryAll(doc, "//Reports/Report")
	if err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, component, err, "could not query %s", summaryFile)
	}

	reports := make([]*Report, 0, len(nodes))
	for _, node := range nodes {
		reports = append(reports, &Report{
			ShortName:    childText(node, "ShortName"),
			LongName:     childText(node, "LongName"),
			HTMLFileName: childText(node, "HtmlFileName"),
			MenuCategory: childText(node, "MenuCategory"),
		})
	}

	return reports, nil
}

func childText(node *xmlquery.Node, name string) string {
	if child := node.SelectElement(name); child != nil {
		return strings.TrimSpace(child.InnerText())
	}
	return ""
}

// FetchFiling downloads the statement reports and calculation linkbase of a filing
func (client *Client) FetchFiling(ctx context.Context, cik string, filing *data.Filing) (*data.FilingArtifacts, error) {
	logger := zerolog.Ctx(ctx).With().Str("AccessionID", filing.AccessionID).Logger()

	artifacts := &data.FilingArtifacts{
		Filing:    filing,
		Auxiliary: make(map[string][]byte),
	}

	summary, err := client.getBytes(ctx, client.archiveURL(cik, filing.AccessionID, summaryFile))
	if err != nil {
		if data.KindOf(err) == data.ErrNotFound {
			return nil, data.NewError(data.ErrMalformedFiling, component, err, "filing %s has no %s", filing.AccessionID, summaryFile)
		}
		return nil, err
	}
	artifacts.Auxiliary[summaryFile] = summary

	reports, err := ParseFilingSummary(summary)
	if err != nil {
		return nil, err
	}

	var html strings.Builder
	fetched := 0
	for _, report := range reports {
		if !report.IsStatement() {
			continue
		}

		body, err := client.getBytes(ctx, client.archiveURL(cik, filing.AccessionID, report.HTMLFileName))
		if err != nil {
			if data.KindOf(err) == data.ErrNotFound {
				logger.Warn().Str("Report", report.HTMLFileName).Msg("statement report listed but missing")
				continue
			}
			return nil, err
		}

		html.Write(body)
		html.WriteString("\n")
		fetched++
	}

	if fetched == 0 {
		return nil, data.NewError(data.ErrMalformedFiling, component, nil, "filing %s lists no statement reports", filing.AccessionID)
	}
	artifacts.ReportHTML = html.String()

	calc, err := client.calculationLinkbase(ctx, cik, filing)
	if err != nil {
		return nil, err
	}
	artifacts.CalcXML = calc

	logger.Debug().Int("NumReports", fetched).Bool("HasCalculation", calc != nil).Msg("fetched filing")
	return artifacts, nil
}

// calculationLinkbase returns the _cal.xml of a filing, or nil when the filing has none
func (client *Client) calculationLinkbase(ctx context.Context, cik string, filing *data.Filing) ([]byte, error) {
	body, err := client.getBytes(ctx, client.archiveURL(cik, filing.AccessionID, indexFile))
	if err != nil {
		if data.KindOf(err) == data.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	index := &directoryIndex{}
	if err := json.Unmarshal(body, index); err != nil {
		return nil, data.NewError(data.ErrMalformedFiling, component, err, "could not decode %s", indexFile)
	}

	for _, item := range index.Directory.Item {
		if strings.HasSuffix(strings.ToLower(item.Name), "_cal.xml") {
			calc, err := client.getBytes(ctx, client.archiveURL(cik, filing.AccessionID, item.Name))
			if err != nil {
				if data.KindOf(err) == data.ErrNotFound {
					return nil, nil
				}
				return nil, err
			}
			return calc, nil
		}
	}

	return nil, nil
}
