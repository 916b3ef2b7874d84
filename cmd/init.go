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
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather configuration and create the cache directory",
	Run: func(cmd *cobra.Command, args []string) {
		settings := &config.File{}
		settings.Library.Name = "pvfin"
		settings.Cache.Root = config.DefaultCacheRoot()

		form := huh.NewForm(
			// Gather details about the library and where it is stored
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&settings.Library.Name),

				huh.NewInput().
					Title("Where should the cache be stored?").
					Value(&settings.Cache.Root),
			),

			// The SEC requires every client to identify itself
			huh.NewGroup(
				huh.NewInput().
					Title("What User-Agent should requests to the SEC carry (e.g. Jane Doe jane@example.com)?").
					Value(&settings.Edgar.UserAgent).
					Validate(func(agent string) error {
						if !strings.Contains(agent, "@") {
							return errors.New("the SEC asks for a contact email address")
						}
						return nil
					}),
			),

			// Optional integrations
			huh.NewGroup(
				huh.NewInput().
					Title("FRED api key (optional):").
					Value(&settings.Fred.APIKey),

				huh.NewInput().
					Title("healthchecks.io check id for refresh runs (optional):").
					Value(&settings.Healthchecks.PingID).
					Validate(func(id string) error {
						if id == "" {
							return nil
						}
						_, err := uuid.Parse(id)
						return err
					}),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		log.Info().Str("CacheRoot", settings.Cache.Root).Msg("creating cache directory")
		if _, err := cache.New(settings.Cache.Root); err != nil {
			log.Fatal().Err(err).Msg("could not create cache directory")
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvfin.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(settings)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
