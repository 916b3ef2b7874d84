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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/config"
	"github.com/penny-vault/pvfin/edgar"
	"github.com/penny-vault/pvfin/library"
	"github.com/penny-vault/pvfin/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvfin",
	Short: "pvfin normalizes company financial statements filed with the SEC",
	Long: `pvfin is a command line utility for turning the financial statements
companies file with the SEC into a consistent, machine readable form.

Every issuer labels, orders and scales its statements a little differently.
pvfin reads the statement tables of 10-K, 20-F and 10-Q filings and maps each
line onto a canonical income statement, balance sheet and cash flow statement:

	* units and scale are verified against the issuer's XBRL company facts
	* totals are recognized from the filing's calculation linkbase
	* mappings are cross checked against earlier filings
	* cumulative fourth quarters are converted to discrete quarters

Lines that have no canonical home are kept in a separate raw view. Results are
cached on disk and refreshed when they expire.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			log.Fatal().Err(err).Str("Level", logLevel).Msg("unknown log level")
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvfin.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.PersistentFlags().String("cache-root", "", "directory the cache is stored in")
	if err := viper.BindPFlag("cache.root", rootCmd.PersistentFlags().Lookup("cache-root")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for cache-root failed")
	}

	rootCmd.PersistentFlags().String("user-agent", "", "User-Agent sent to the SEC (name and email)")
	if err := viper.BindPFlag("edgar.user_agent", rootCmd.PersistentFlags().Lookup("user-agent")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for user-agent failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvfin" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvfin")
	}

	// PVFIN_EDGAR_USER_AGENT overrides edgar.user_agent
	viper.SetEnvPrefix("pvfin")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

// commandContext returns a context cancelled on SIGINT / SIGTERM that carries the global logger
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	return log.Logger.WithContext(ctx), stop
}

// environment wires the configured cache, EDGAR client, pipeline and library together
type environment struct {
	conf     *config.Config
	store    *cache.Store
	client   *edgar.Client
	pipeline *pipeline.Pipeline
	library  *library.Library
}

func loadEnvironment() *environment {
	conf, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := cache.New(conf.CacheRoot, conf.StoreOptions()...)
	if err != nil {
		log.Fatal().Err(err).Str("CacheRoot", conf.CacheRoot).Msg("could not open cache")
	}

	client := edgar.New(conf.Edgar)
	runner := pipeline.New(client, store, conf.Pipeline)

	return &environment{
		conf:     conf,
		store:    store,
		client:   client,
		pipeline: runner,
		library:  library.New(conf.LibraryName, store, runner, conf.Pipeline.QuarterlyTolerance),
	}
}
