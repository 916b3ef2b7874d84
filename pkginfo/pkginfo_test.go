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
package pkginfo_test

import (
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvfin/pkginfo"
)

var _ = Describe("Info", func() {
	BeforeEach(func() {
		version, date, commit := pkginfo.Version, pkginfo.BuildDate, pkginfo.CommitHash
		DeferCleanup(func() {
			pkginfo.Version, pkginfo.BuildDate, pkginfo.CommitHash = version, date, commit
		})
	})

	It("lists component versions with the build details", func() {
		pkginfo.Version = "1.2.3"
		pkginfo.BuildDate = "2024-11-01"
		pkginfo.CommitHash = ""

		info := pkginfo.Build(
			pkginfo.Component{Name: "Pipeline", Version: "1.4.0"},
			pkginfo.Component{Name: "Cache format", Version: "1"},
		)
		Expect(info.Version).To(Equal("1.2.3"))
		Expect(info.Platform).To(Equal(runtime.GOOS + "/" + runtime.GOARCH))

		out := info.String()
		Expect(out).To(HavePrefix("pvfin 1.2.3 " + info.Platform + "\n\n"))
		Expect(out).To(ContainSubstring("Pipeline:      1.4.0\n"))
		Expect(out).To(ContainSubstring("Cache format:  1\n"))
		Expect(out).To(ContainSubstring("Build Date:    2024-11-01\n"))
		Expect(out).To(ContainSubstring("Commit:        unknown\n"))
		Expect(out).To(HaveSuffix("Built with:    " + runtime.Version()))
	})

	It("falls back to the module version when not stamped", func() {
		pkginfo.Version = ""
		Expect(pkginfo.Build().Version).NotTo(BeEmpty())
	})
})
