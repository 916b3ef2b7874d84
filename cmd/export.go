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
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportDir string

// exportRecord is one cell of a statement in long format
type exportRecord struct {
	Ticker    string  `csv:"ticker"`
	Statement string  `csv:"statement"`
	View      string  `csv:"view"`
	Line      string  `csv:"line"`
	Date      string  `csv:"date"`
	Value     float64 `csv:"value"`
	Unit      string  `csv:"unit"`
}

// exportRecords flattens a statement into records, skipping missing cells
func exportRecords(ticker string, st data.StatementType, stmt *data.StatementDocument) []*exportRecord {
	var records []*exportRecord
	if stmt == nil || !stmt.Available {
		return records
	}

	add := func(view string, names []string, matrix data.Matrix, units []string) {
		for rowIdx, name := range names {
			unit := ""
			if rowIdx < len(units) {
				unit = units[rowIdx]
			}

			for colIdx, date := range stmt.Columns {
				v := matrix[rowIdx][colIdx]
				if data.IsMissing(v) {
					continue
				}

				records = append(records, &exportRecord{
					Ticker:    ticker,
					Statement: string(st),
					View:      view,
					Line:      name,
					Date:      date,
					Value:     v,
					Unit:      unit,
				})
			}
		}
	}

	add("canonical", stmt.RowNames, stmt.Data, stmt.Units)
	add("raw", stmt.RawRowNames, stmt.RawData, stmt.RawUnits)

	return records
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <ticker...>",
	Short: "Export normalized statements to CSV files",
	Long: `Write one CSV file per ticker, periodicity and statement. Values are in
base units (e.g. USD, not thousands of USD).`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		env := loadEnvironment()

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			log.Fatal().Err(err).Str("Dir", exportDir).Msg("could not create export directory")
		}

		for _, ticker := range args {
			ticker = data.CanonicalTicker(ticker)
			doc, err := env.library.GetFinancials(ctx, ticker, quarterlyFlag)
			if err != nil {
				log.Error().Err(err).Str("Ticker", ticker).Msg("could not load financial statements")
				continue
			}

			for _, st := range data.StatementTypes {
				records := exportRecords(ticker, st, doc.Statements[st])
				if len(records) == 0 {
					continue
				}

				fn := filepath.Join(exportDir, strings.ToLower(slug.Make(fmt.Sprintf("%s %s %s", ticker, doc.PeriodType, st)))+".csv")
				fh, err := os.Create(fn)
				if err != nil {
					log.Fatal().Err(err).Str("FileName", fn).Msg("could not create export file")
				}

				if err := gocsv.MarshalFile(&records, fh); err != nil {
					fh.Close()
					log.Fatal().Err(err).Str("FileName", fn).Msg("could not write export file")
				}

				if err := fh.Close(); err != nil {
					log.Fatal().Err(err).Str("FileName", fn).Msg("could not close export file")
				}

				log.Info().Str("FileName", fn).Int("NumRecords", len(records)).Msg("exported statement")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVarP(&quarterlyFlag, "quarterly", "q", false, "use quarterly (10-Q) filings")
	exportCmd.Flags().StringVarP(&exportDir, "dir", "o", ".", "directory to write CSV files to")
}
