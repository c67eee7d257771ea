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

package analysis

import (
	"fmt"
	"path/filepath"

	"github.com/nuclio/sonarlint-client/pkg/common"

	"github.com/nuclio/errors"
)

const DefaultCharset = "UTF-8"

// Language is the daemon's language identifier of submitted content (e.g. "JavaScript")
type Language string

const (
	LanguageJavaScript Language = "JavaScript"
	LanguageTypeScript Language = "TypeScript"
	LanguageJava       Language = "Java"
	LanguagePython     Language = "Python"
	LanguagePHP        Language = "PHP"
)

// InputFile is a single on-disk file submitted for analysis
type InputFile struct {
	Path    string
	Charset string
	IsTest  bool

	// opaque to the daemon, echoed back on the issues raised for this file
	UserObject string
}

// ContentAnalysisRequest submits one inline snippet for analysis
type ContentAnalysisRequest struct {
	Content  string
	Language Language
	Charset  string
}

// Prepare validates the request and canonicalizes its charset
func (r *ContentAnalysisRequest) Prepare() error {
	if r.Language == "" {
		return errors.New("Content analysis requires a language")
	}

	charset, err := CanonicalCharset(r.Charset)
	if err != nil {
		return errors.Wrap(err, "Invalid content charset")
	}

	r.Charset = charset

	if err := validateUTF8(map[string]string{"Language": string(r.Language)}); err != nil {
		return errors.Wrap(err, "Invalid content analysis request")
	}

	// protobuf strings are UTF-8
	content, err := toUTF8(r.Content, r.Charset)
	if err != nil {
		return errors.Wrap(err, "Invalid content")
	}

	r.Content = content

	return nil
}

// FileAnalysisRequest submits one or more files for analysis
type FileAnalysisRequest struct {
	Files []InputFile

	// optional, left to the daemon when empty. relative directories are resolved like file paths
	BaseDir    string
	WorkDir    string
	Properties map[string]string
}

// FilePrepareOptions controls how file requests are checked before they are sent
type FilePrepareOptions struct {
	WorkingDir           string
	RequireExistingFiles bool
}

// Prepare validates the request, resolves relative paths against the working directory
// (the daemon runs with its own) and canonicalizes every file's charset
func (r *FileAnalysisRequest) Prepare(options *FilePrepareOptions) error {
	if len(r.Files) == 0 {
		return errors.New("File analysis requires at least one file")
	}

	if options == nil {
		options = &FilePrepareOptions{}
	}

	seenPaths := map[string]struct{}{}

	for fileIndex := range r.Files {
		inputFile := &r.Files[fileIndex]

		if inputFile.Path == "" {
			return errors.Errorf("File at index %d has no path", fileIndex)
		}

		if err := validateUTF8(map[string]string{
			"Path":       inputFile.Path,
			"UserObject": inputFile.UserObject,
		}); err != nil {
			return errors.Wrapf(err, "Invalid file at index %d", fileIndex)
		}

		resolvedPath, err := resolvePath(options.WorkingDir, inputFile.Path)
		if err != nil {
			return errors.Wrapf(err, "Failed to resolve path %q", inputFile.Path)
		}

		if _, found := seenPaths[resolvedPath]; found {
			return errors.Errorf("File %q was submitted more than once", resolvedPath)
		}
		seenPaths[resolvedPath] = struct{}{}

		if options.RequireExistingFiles && !common.IsFile(resolvedPath) {
			return errors.Errorf("File %q does not exist or is not a regular file", resolvedPath)
		}

		charset, err := CanonicalCharset(inputFile.Charset)
		if err != nil {
			return errors.Wrapf(err, "Invalid charset for file %q", inputFile.Path)
		}

		inputFile.Path = resolvedPath
		inputFile.Charset = charset
	}

	for key, value := range r.Properties {
		if err := validateUTF8(map[string]string{"Property name": key, "Property value": value}); err != nil {
			return errors.Wrapf(err, "Invalid property %q", key)
		}
	}

	// the daemon resolves relative directories against its own working directory
	for _, dir := range []*string{&r.BaseDir, &r.WorkDir} {
		if *dir == "" {
			continue
		}

		if err := validateUTF8(map[string]string{"Directory": *dir}); err != nil {
			return err
		}

		resolvedDir, err := resolvePath(options.WorkingDir, *dir)
		if err != nil {
			return errors.Wrapf(err, "Failed to resolve directory %q", *dir)
		}
		*dir = resolvedDir
	}

	return nil
}

// Severity of an issue, as computed by the daemon
type Severity int32

const (
	SeverityInfo Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityCritical
	SeverityBlocker
)

var severityNames = map[Severity]string{
	SeverityInfo:     "INFO",
	SeverityMinor:    "MINOR",
	SeverityMajor:    "MAJOR",
	SeverityCritical: "CRITICAL",
	SeverityBlocker:  "BLOCKER",
}

func (s Severity) String() string {
	if name, found := severityNames[s]; found {
		return name
	}

	return fmt.Sprintf("SEVERITY_%d", int32(s))
}

// Issue is one finding produced by the daemon for a given input
type Issue struct {
	Severity        Severity
	StartLine       int32
	StartLineOffset int32
	EndLine         int32
	EndLineOffset   int32
	Message         string
	RuleKey         string
	RuleName        string

	// nil for content analysis
	InputFile *InputFile
}

type RuleKey struct {
	Key string
}

// RuleDetails describes a rule that raised issues
type RuleDetails struct {
	Key             string
	Name            string
	Language        string
	Severity        string
	HTMLDescription string
	Tags            []string
	Type            string
}

// LogEvent is a log line emitted by the daemon
type LogEvent struct {
	Level   string
	Message string
	IsDebug bool
}

func resolvePath(workingDir string, path string) (string, error) {
	if !filepath.IsAbs(path) && workingDir != "" {
		path = filepath.Join(workingDir, path)
	}

	return filepath.Abs(path)
}
