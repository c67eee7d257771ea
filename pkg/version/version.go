/*
Copyright 2024 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package version

import (
	"runtime"
)

const developmentLabel = "dev"

type Info struct {
	Label     string `json:"label"`
	GitCommit string `json:"git_commit"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	GoVersion string `json:"go_version"`
}

// set by the linker (-X) when building a release
var (
	label     = ""
	gitCommit = ""
)

// Get returns the version information of the client
func Get() *Info {
	versionLabel := label
	if versionLabel == "" {
		versionLabel = developmentLabel
	}

	return &Info{
		Label:     versionLabel,
		GitCommit: gitCommit,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
}

// Set overrides the version label and commit, used primarily for tests
func Set(versionLabel string, versionGitCommit string) {
	label = versionLabel
	gitCommit = versionGitCommit
}

// UserAgent returns "<product>/<label>"
func UserAgent(product string) string {
	return product + "/" + Get().Label
}
