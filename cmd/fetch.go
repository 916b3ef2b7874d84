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
	"strings"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfin/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <provider> <dataset> [args...]",
	Short: "Fetch a provider dataset into the cache",
	Long: `The fetch sub-command retrieves a dataset from a data provider and saves
it in the dataset's cache namespace. Run "pvfin providers <provider>" to see the
datasets a provider offers and the arguments they take.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		dataProvider, dataset, err := provider.Lookup(args[0], args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("run `pvfin providers` for a complete list of available providers")
		}

		env := loadEnvironment()

		providerConfig := map[string]string{
			"apiKey":    env.conf.FredAPIKey,
			"seriesIds": env.conf.FredSeries,
			"userAgent": env.conf.Edgar.UserAgent,
		}

		// provider specific settings, e.g. fred.apiKey, override the shared ones
		for key := range dataProvider.ConfigDescription() {
			name := strings.ToLower(args[0]) + "." + key
			if viper.IsSet(name) {
				providerConfig[key] = viper.GetString(name)
			}
		}

		fetchLogger := log.With().Str("Provider", dataProvider.Name()).Str("Dataset", dataset.Name).Logger()

		summary, err := dataset.Fetch(fetchLogger.WithContext(ctx), &provider.Env{
			Library: env.library,
			Store:   env.store,
			Config:  providerConfig,
		}, args[2:])
		if err != nil {
			fetchLogger.Fatal().Err(err).Str("Usage", dataset.Usage).Msg("fetch returned an error")
		}

		runTime := summary.EndTime.Sub(summary.StartTime)
		fetchLogger.Info().Object("Summary", summary).Str("RunTime", durafmt.Parse(runTime).String()).Msg("fetch finished")

		for key, err := range summary.Failures {
			fetchLogger.Error().Err(err).Str("Key", key).Msg("fetch failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
