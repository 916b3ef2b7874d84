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
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvfin/data"
	"github.com/penny-vault/pvfin/healthcheck"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var parallel int

type refreshResult struct {
	ticker    string
	quarterly bool
	elapsed   time.Duration
	err       error
}

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh <ticker...>",
	Short: "Rebuild the cached financial statements of several tickers",
	Long: `Rebuild the annual and quarterly statements of every ticker given on the
command line, ignoring anything already cached. Tickers are processed
concurrently (see --parallel) while requests to EDGAR stay within the
configured rate limit.

When healthchecks.ping_id is configured the run is reported to
healthchecks.io.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := commandContext(cmd)
		defer stop()

		env := loadEnvironment()

		var check *healthcheck.Check
		if env.conf.HealthcheckPingID != "" {
			var err error
			if check, err = healthcheck.New(env.conf.HealthcheckPingID); err != nil {
				log.Fatal().Err(err).Msg("invalid healthchecks.ping_id")
			}

			if err := check.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("could not signal start to healthchecks.io")
			}
		}

		startTime := time.Now()

		var (
			mu      sync.Mutex
			results []*refreshResult
		)

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(max(parallel, 1))

		for _, ticker := range args {
			ticker = data.CanonicalTicker(ticker)
			for _, quarterly := range []bool{false, true} {
				group.Go(func() error {
					result := refreshTicker(groupCtx, env, ticker, quarterly)

					mu.Lock()
					results = append(results, result)
					mu.Unlock()

					// a cancelled run stops the batch, failures of single tickers do not
					if groupCtx.Err() != nil {
						return groupCtx.Err()
					}
					return nil
				})
			}
		}

		if err := group.Wait(); err != nil {
			log.Error().Err(err).Msg("refresh interrupted")
		}

		report := refreshReport(results, time.Since(startTime))
		fmt.Println(report)

		failed := 0
		for _, result := range results {
			if result.err != nil {
				failed++
			}
		}

		if check != nil {
			signal := check.Success
			if failed > 0 {
				signal = check.Fail
			}

			if err := signal(context.Background(), report); err != nil {
				log.Warn().Err(err).Msg("could not report run to healthchecks.io")
			}
		}
	},
}

func refreshTicker(ctx context.Context, env *environment, ticker string, quarterly bool) *refreshResult {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Bool("Quarterly", quarterly).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	_, err := env.library.Refresh(ctx, ticker, quarterly)
	result := &refreshResult{
		ticker:    ticker,
		quarterly: quarterly,
		elapsed:   time.Since(start),
		err:       err,
	}

	if err != nil {
		logger.Error().Err(err).Msg("refresh failed")
	} else {
		logger.Info().Str("RunTime", durafmt.Parse(result.elapsed).LimitFirstN(2).String()).Msg("refreshed")
	}

	return result
}

func refreshReport(results []*refreshResult, total time.Duration) string {
	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}
	failure := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(s)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", lipgloss.NewStyle().Bold(true).Render("REFRESH"))

	for _, result := range results {
		periodicity := "annual"
		if result.quarterly {
			periodicity = "quarterly"
		}

		status := keyword("ok")
		if result.err != nil {
			status = failure(errorKind(result.err))
		}

		fmt.Fprintf(&sb, "%-8s %-10s %-22s %s\n", result.ticker, periodicity, status,
			durafmt.Parse(result.elapsed.Round(time.Millisecond)).LimitFirstN(2).String())
	}

	fmt.Fprintf(&sb, "\nTotal: %s", keyword(durafmt.Parse(total.Round(time.Second)).String()))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2).
		Render(sb.String())
}

func errorKind(err error) string {
	if kind := data.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "failed"
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVarP(&parallel, "parallel", "p", 2, "number of tickers to process concurrently")
}
