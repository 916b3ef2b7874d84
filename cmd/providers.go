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
	"sort"
	"strings"

	"github.com/penny-vault/pvfin/provider"
	"github.com/spf13/cobra"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers <name>",
	Short: "List all providers available or get details about a specific provider",
	Run: func(cmd *cobra.Command, args []string) {
		builder := strings.Builder{}

		if len(args) > 0 {
			if dataProvider, ok := provider.Map[args[0]]; ok {
				builder.WriteString(fmt.Sprintf("# %s\n", dataProvider.Name()))
				builder.WriteString(dataProvider.Description())
				builder.WriteString("\n\n## Datasets\n")

				datasets := dataProvider.Datasets()
				keys := make([]string, 0, len(datasets))
				for key := range datasets {
					keys = append(keys, key)
				}
				sort.Strings(keys)

				for _, key := range keys {
					dataset := datasets[key]
					start, end := dataset.DateRange()
					builder.WriteString(fmt.Sprintf("- `%s %s %s` %s (%s to %s, cached in %s): %s\n", args[0], key, dataset.Usage,
						dataset.Name, start.Format("2006-01-02"), end.Format("2006-01-02"), dataset.Namespace, dataset.Description))
				}
			} else {
				builder.WriteString(fmt.Sprintf("Data Provider '%s' doesn't exist.\n", args[0]))
			}
		} else {
			builder.WriteString("# Available Providers\n")
			for _, name := range provider.Names() {
				dataProvider := provider.Map[name]
				builder.WriteString(fmt.Sprintf("\n## %s (`%s`)\n", dataProvider.Name(), name))
				builder.WriteString(dataProvider.Description())
				builder.WriteString("\n")
			}
		}

		render(builder.String())
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
