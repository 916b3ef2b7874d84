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
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/pvfin/cache"
	"github.com/penny-vault/pvfin/library"
	"github.com/rs/zerolog"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrNoArguments      = errors.New("dataset requires at least one argument")
)

type Provider interface {
	Name() string
	ConfigDescription() map[string]string
	Description() string
	Datasets() map[string]Dataset
}

// Env is what a dataset needs to fetch and persist observations
type Env struct {
	Library *library.Library
	Store   *cache.Store
	Config  map[string]string
}

type Dataset struct {
	Name        string
	Description string
	Namespace   cache.Namespace
	Usage       string
	DateRange   func() (time.Time, time.Time)

	// Fetch retrieves the observations named by args and stores them in the dataset's
	// cache namespace
	Fetch func(context.Context, *Env, []string) (*RunSummary, error)
}

// RunSummary describes the outcome of one dataset fetch
type RunSummary struct {
	Provider        string
	Dataset         string
	Namespace       cache.Namespace
	Keys            []string
	NumObservations int
	StartTime       time.Time
	EndTime         time.Time
	Failures        map[string]error
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Provider", summary.Provider)
	e.Str("Dataset", summary.Dataset)
	e.Str("Namespace", string(summary.Namespace))
	e.Int("NumKeys", len(summary.Keys))
	e.Int("NumObservations", summary.NumObservations)
	e.Int("NumFailures", len(summary.Failures))
	e.Dur("Elapsed", summary.EndTime.Sub(summary.StartTime))
}

func newRunSummary(provider Provider, dataset Dataset) *RunSummary {
	return &RunSummary{
		Provider:  provider.Name(),
		Dataset:   dataset.Name,
		Namespace: dataset.Namespace,
		StartTime: time.Now(),
		Failures:  make(map[string]error),
	}
}

// Map lists every provider by the name used on the command line
var Map = map[string]Provider{
	"edgar": &Edgar{},
	"fred":  &Fred{},
}

// Names returns the command line names of all providers in sorted order
func Names() []string {
	names := make([]string, 0, len(Map))
	for name := range Map {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a dataset of a provider by their command line names
func Lookup(providerName, datasetName string) (Provider, Dataset, error) {
	providerObj, ok := Map[providerName]
	if !ok {
		return nil, Dataset{}, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	datasetObj, ok := providerObj.Datasets()[datasetName]
	if !ok {
		return nil, Dataset{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetName)
	}

	return providerObj, datasetObj, nil
}
