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
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// invalidateCmd represents the invalidate command
var invalidateCmd = &cobra.Command{
	Use:   "invalidate <ticker...>",
	Short: "Remove cached financial statements",
	Long: `Remove the cached annual and quarterly statements of each ticker. The
next request for the ticker rebuilds them from EDGAR.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnvironment()

		for _, ticker := range args {
			ticker = data.CanonicalTicker(ticker)
			for _, quarterly := range []bool{false, true} {
				if err := env.library.Invalidate(ticker, quarterly); err != nil {
					log.Fatal().Err(err).Str("Ticker", ticker).Msg("could not invalidate cache entry")
				}
			}

			log.Info().Str("Ticker", ticker).Msg("cache invalidated")
		}
	},
}

func init() {
	rootCmd.AddCommand(invalidateCmd)
}
