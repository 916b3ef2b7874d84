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
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// statementCmd represents the statement command
var statementCmd = &cobra.Command{
	Use:   "statement <ticker> <income|balance|cashflow>",
	Short: "Show a single normalized statement of a company",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		st, ok := data.ParseStatementType(args[1])
		if !ok {
			log.Fatal().Str("StatementType", args[1]).Msg("unknown statement type")
		}

		env := loadEnvironment()
		stmt, err := env.library.GetStatement(ctx, args[0], st, quarterlyFlag)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", args[0]).Msg("could not load statement")
		}

		if jsonFlag {
			out, err := json.MarshalIndent(stmt, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not encode statement")
			}
			fmt.Println(string(out))
			return
		}

		title := fmt.Sprintf("%s %s", data.CanonicalTicker(args[0]), statementTitle(st))
		render(statementMarkdown(title, stmt, rawFlag))
	},
}

func init() {
	rootCmd.AddCommand(statementCmd)

	statementCmd.Flags().BoolVarP(&quarterlyFlag, "quarterly", "q", false, "use quarterly (10-Q) filings")
	statementCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the statement as JSON")
	statementCmd.Flags().BoolVar(&rawFlag, "raw", false, "show the raw view instead of the canonical view")
}
