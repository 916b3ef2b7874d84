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
package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxColumns keeps rendered tables readable in a terminal
const maxColumns = 5

func render(markdown string) {
	r, _ := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(120),
	)

	out, err := r.Render(markdown)
	if err != nil {
		log.Fatal().Err(err).Msg("could not render document")
	}

	fmt.Print(out)
}

// statementMarkdown renders a statement as a markdown table. Values are shown in the scale
// each row was reported in.
func statementMarkdown(title string, stmt *data.StatementDocument, raw bool) string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("## %s\n\n", title))
	if stmt == nil || !stmt.Available {
		builder.WriteString("_not available_\n\n")
		return builder.String()
	}

	columns := stmt.Columns
	if len(columns) > maxColumns {
		columns = columns[:maxColumns]
	}

	builder.WriteString("| Line | Unit |")
	for _, col := range columns {
		builder.WriteString(fmt.Sprintf(" %s |", col))
	}
	builder.WriteString("\n|---|---|")
	for range columns {
		builder.WriteString("---:|")
	}
	builder.WriteString("\n")

	names, matrix, units := stmt.RowNames, stmt.Data, stmt.Units
	if raw {
		names, matrix, units = stmt.RawRowNames, stmt.RawData, stmt.RawUnits
	}

	for rowIdx, name := range names {
		unit := data.FallbackUnit()
		if rowIdx < len(units) {
			unit = data.ParseUnit(units[rowIdx])
		}

		builder.WriteString(fmt.Sprintf("| %s | %s |", strings.ReplaceAll(name, "|", "/"), unit))
		for colIdx := range columns {
			builder.WriteString(fmt.Sprintf(" %s |", formatCell(p, matrix[rowIdx][colIdx], unit)))
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\n")

	return builder.String()
}

func formatCell(p *message.Printer, v float64, unit data.UnitInfo) string {
	if data.IsMissing(v) {
		return "—"
	}

	scale := unit.ScaleApplied
	if scale == 0 {
		scale = 1
	}

	if unit.Type == data.UnitPerShare || unit.Type == data.UnitRatio {
		return p.Sprintf("%.2f", v)
	}

	scaled := v / scale
	if scaled == math.Trunc(scaled) {
		return p.Sprintf("%.0f", scaled)
	}
	return p.Sprintf("%.2f", scaled)
}

func documentMarkdown(doc *data.FinancialsDocument, raw bool) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("# %s %s financials\n\n", doc.Metadata.CompanyName, doc.PeriodType))
	builder.WriteString(fmt.Sprintf("CIK %s, %d filings, cached %s\n\n", doc.Metadata.CIK, len(doc.Metadata.Filings), doc.CachedAt.Local().Format("01/02/2006 15:04")))

	for _, st := range data.StatementTypes {
		builder.WriteString(statementMarkdown(statementTitle(st), doc.Statements[st], raw))
	}

	applied := 0
	for _, adj := range doc.Metadata.AdjustmentsApplied {
		if adj.Applied {
			applied++
		}
	}
	if len(doc.Metadata.AdjustmentsApplied) > 0 {
		builder.WriteString(fmt.Sprintf("%d quarterly adjustments applied, %d left unchanged\n", applied, len(doc.Metadata.AdjustmentsApplied)-applied))
	}

	return builder.String()
}

func statementTitle(st data.StatementType) string {
	switch st {
	case data.IncomeStatement:
		return "Income Statement"
	case data.BalanceSheet:
		return "Balance Sheet"
	case data.CashFlow:
		return "Cash Flow Statement"
	}
	return string(st)
}
