//go:build test_unit

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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *TypesTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *TypesTestSuite) TestContentRequestPrepare() {
	for _, testCase := range []struct {
		name            string
		request         ContentAnalysisRequest
		expectedCharset string
		expectError     bool
	}{
		{
			name: "Explicit",
			request: ContentAnalysisRequest{
				Content:  "arr = [1, 2, 3];",
				Language: LanguageJavaScript,
				Charset:  "UTF-8",
			},
			expectedCharset: "UTF-8",
		},
		{
			name: "DefaultCharset",
			request: ContentAnalysisRequest{
				Content:  "x = 1;",
				Language: LanguageJavaScript,
			},
			expectedCharset: DefaultCharset,
		},
		{
			name: "WhatwgLabel",
			request: ContentAnalysisRequest{
				Language: LanguageJavaScript,
				Charset:  "utf8",
			},
			expectedCharset: "UTF-8",
		},
		{
			name: "EmptyContentIsValid",
			request: ContentAnalysisRequest{
				Language: LanguagePython,
				Charset:  "ISO-8859-1",
			},
			expectedCharset: "ISO-8859-1",
		},
		{
			name: "MissingLanguage",
			request: ContentAnalysisRequest{
				Content: "x = 1;",
			},
			expectError: true,
		},
		{
			name: "UnknownCharset",
			request: ContentAnalysisRequest{
				Language: LanguageJavaScript,
				Charset:  "not-a-charset",
			},
			expectError: true,
		},
	} {
		suite.Run(testCase.name, func() {
			err := testCase.request.Prepare()
			if testCase.expectError {
				suite.Require().Error(err)
				return
			}

			suite.Require().NoError(err)
			suite.Require().Equal(testCase.expectedCharset, testCase.request.Charset)
		})
	}
}

func (suite *TypesTestSuite) TestFileRequestPrepareResolvesRelativePaths() {
	request := FileAnalysisRequest{
		Files: []InputFile{
			{Path: "./bad.js", Charset: "UTF-8"},
			{Path: "/abs/dir/../good.js"},
		},
		BaseDir: "src",
		WorkDir: "work",
	}

	err := request.Prepare(&FilePrepareOptions{WorkingDir: suite.tempDir})
	suite.Require().NoError(err)

	suite.Require().Equal(filepath.Join(suite.tempDir, "bad.js"), request.Files[0].Path)
	suite.Require().Equal("/abs/good.js", request.Files[1].Path)
	suite.Require().Equal(DefaultCharset, request.Files[1].Charset)
	suite.Require().Equal(filepath.Join(suite.tempDir, "src"), request.BaseDir)
	suite.Require().Equal(filepath.Join(suite.tempDir, "work"), request.WorkDir)
}

func (suite *TypesTestSuite) TestFileRequestPrepareRejections() {
	existingFile := filepath.Join(suite.tempDir, "exists.js")
	suite.Require().NoError(os.WriteFile(existingFile, []byte("var x;"), 0644))

	for _, testCase := range []struct {
		name    string
		request FileAnalysisRequest
		options *FilePrepareOptions
	}{
		{
			name:    "NoFiles",
			request: FileAnalysisRequest{},
		},
		{
			name: "EmptyPath",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: ""}},
			},
		},
		{
			name: "Duplicate",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: existingFile}, {Path: "exists.js"}},
			},
			options: &FilePrepareOptions{WorkingDir: suite.tempDir},
		},
		{
			name: "Missing",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: existingFile}, {Path: "missing.js"}},
			},
			options: &FilePrepareOptions{WorkingDir: suite.tempDir, RequireExistingFiles: true},
		},
		{
			name: "BadCharset",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: existingFile, Charset: "klingon"}},
			},
		},
		{
			name: "InvalidUTF8Path",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: "caf\xe9.js"}},
			},
		},
		{
			name: "InvalidUTF8UserObject",
			request: FileAnalysisRequest{
				Files: []InputFile{{Path: existingFile, UserObject: "\xff"}},
			},
		},
		{
			name: "InvalidUTF8PropertyName",
			request: FileAnalysisRequest{
				Files:      []InputFile{{Path: existingFile}},
				Properties: map[string]string{"sonar.\xff": "1"},
			},
		},
		{
			name: "InvalidUTF8PropertyValue",
			request: FileAnalysisRequest{
				Files:      []InputFile{{Path: existingFile}},
				Properties: map[string]string{"sonar.exclusions": "\xfe"},
			},
		},
		{
			name: "InvalidUTF8WorkDir",
			request: FileAnalysisRequest{
				Files:   []InputFile{{Path: existingFile}},
				WorkDir: "work\xff",
			},
		},
	} {
		suite.Run(testCase.name, func() {
			suite.Require().Error(testCase.request.Prepare(testCase.options))
		})
	}
}

func (suite *TypesTestSuite) TestCanonicalCharset() {
	for _, testCase := range []struct {
		charset         string
		expectedCharset string
		expectError     bool
	}{
		{charset: "", expectedCharset: "UTF-8"},
		{charset: "UTF-8", expectedCharset: "UTF-8"},
		{charset: "utf8", expectedCharset: "UTF-8"},
		{charset: "ISO-8859-1", expectedCharset: "ISO-8859-1"},
		{charset: "latin1", expectedCharset: "ISO-8859-1"},
		{charset: "EUC-JP", expectedCharset: "EUC-JP"},
		{charset: "Shift_JIS", expectedCharset: "Shift_JIS"},
		{charset: "x-user-defined", expectError: true},
		{charset: "klingon", expectError: true},
	} {
		suite.Run(testCase.charset, func() {
			charset, err := CanonicalCharset(testCase.charset)
			if testCase.expectError {
				suite.Require().Error(err)
				return
			}

			suite.Require().NoError(err)
			suite.Require().Equal(testCase.expectedCharset, charset)
		})
	}
}

func (suite *TypesTestSuite) TestContentIsSentAsUTF8() {
	request := ContentAnalysisRequest{
		Content:  "caf\xe9 = 1;",
		Language: LanguageJavaScript,
		Charset:  "latin1",
	}
	suite.Require().NoError(request.Prepare())
	suite.Require().Equal("café = 1;", request.Content)
	suite.Require().Equal("ISO-8859-1", request.Charset)

	// declared UTF-8 but isn't
	request = ContentAnalysisRequest{
		Content:  "caf\xe9 = 1;",
		Language: LanguageJavaScript,
		Charset:  "UTF-8",
	}
	suite.Require().Error(request.Prepare())

	request = ContentAnalysisRequest{
		Content:  "caf\xe9 = 1;",
		Language: LanguageJavaScript,
	}
	suite.Require().Error(request.Prepare())

	request = ContentAnalysisRequest{
		Content:  "x = 1;",
		Language: Language("Java\xffScript"),
	}
	suite.Require().Error(request.Prepare())
}

func (suite *TypesTestSuite) TestSeverityString() {
	suite.Require().Equal("BLOCKER", SeverityBlocker.String())
	suite.Require().Equal("INFO", SeverityInfo.String())
	suite.Require().Equal("SEVERITY_42", Severity(42).String())
}

func TestTypesTestSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}
