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
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// Component is a versioned part of pvfin. Cached documents record these versions, so a
// change in any of them means cached statements may differ from a fresh run.
type Component struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Info describes the running binary
type Info struct {
	Version    string      `json:"version"`
	BuildDate  string      `json:"build_date,omitempty"`
	CommitHash string      `json:"commit,omitempty"`
	GoVersion  string      `json:"go_version"`
	Platform   string      `json:"platform"`
	Components []Component `json:"components"`
}

// Build collects the build information of the binary together with components
func Build(components ...Component) *Info {
	info := &Info{
		Version:    Version,
		BuildDate:  BuildDate,
		CommitHash: CommitHash,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Components: components,
	}

	// fall back to module information when built without -ldflags
	if info.Version == "" {
		info.Version = "devel"
		if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.Main.Version != "" {
			info.Version = buildInfo.Main.Version
		}
	}

	return info
}

// String returns a version info string suitable for printing on the command line
func (info *Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pvfin %s %s\n\n", info.Version, info.Platform)

	width := len("Build Date")
	for _, component := range info.Components {
		width = max(width, len(component.Name))
	}

	line := func(name, value string) {
		if value == "" {
			value = "unknown"
		}
		fmt.Fprintf(&sb, "%-*s  %s\n", width+1, name+":", value)
	}

	for _, component := range info.Components {
		line(component.Name, component.Version)
	}
	line("Build Date", info.BuildDate)
	line("Commit", info.CommitHash)
	line("Built with", info.GoVersion)

	return strings.TrimRight(sb.String(), "\n")
}

// GetDependencyList returns an array of all dependencies linked in with this program
// each string is of the form `package="version"`
func GetDependencyList() []string {
	var deps []string

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return deps
	}

	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)

	return deps
}
