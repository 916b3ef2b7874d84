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

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	quarterlyFlag bool
	refreshFlag   bool
	jsonFlag      bool
	rawFlag       bool
)

// financialsCmd represents the financials command
var financialsCmd = &cobra.Command{
	Use:   "financials <ticker>",
	Short: "Show the normalized financial statements of a company",
	Long: `Show the income statement, balance sheet and cash flow statement of a
company. Cached results are used when they are fresh; otherwise the company's
filings are downloaded from EDGAR and normalized.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		env := loadEnvironment()

		getFinancials := env.library.GetFinancials
		if refreshFlag {
			getFinancials = env.library.Refresh
		}

		doc, err := getFinancials(ctx, args[0], quarterlyFlag)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", args[0]).Msg("could not load financial statements")
		}

		if jsonFlag {
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not encode document")
			}
			fmt.Println(string(out))
			return
		}

		render(documentMarkdown(doc, rawFlag))
	},
}

func init() {
	rootCmd.AddCommand(financialsCmd)

	financialsCmd.Flags().BoolVarP(&quarterlyFlag, "quarterly", "q", false, "use quarterly (10-Q) filings")
	financialsCmd.Flags().BoolVarP(&refreshFlag, "refresh", "r", false, "ignore the cache and rebuild the statements")
	financialsCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the cached document as JSON")
	financialsCmd.Flags().BoolVar(&rawFlag, "raw", false, "show the raw view instead of the canonical view")
}
