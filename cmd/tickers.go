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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var allTickers bool

// tickersCmd represents the tickers command
var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "List tickers with cached financial statements",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		env := loadEnvironment()

		if allTickers {
			entries, err := env.client.Tickers(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load the EDGAR ticker directory")
			}

			for _, entry := range entries {
				fmt.Printf("%-8s %10s  %s\n", entry.Ticker, entry.CIK, entry.Name)
			}
			return
		}

		tickers, err := env.library.ListTickers()
		if err != nil {
			log.Fatal().Err(err).Msg("could not list cached tickers")
		}

		for _, ticker := range tickers {
			fmt.Println(ticker)
		}
	},
}

func init() {
	rootCmd.AddCommand(tickersCmd)

	tickersCmd.Flags().BoolVarP(&allTickers, "all", "a", false, "list every ticker known to EDGAR")
}
