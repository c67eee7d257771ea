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

package report

import (
	"context"

	"github.com/nuclio/sonarlint-client/pkg/analysis"
	"github.com/nuclio/sonarlint-client/pkg/client"
)

// IssueIterator yields issues until io.EOF or a terminal error (satisfied by client.IssueStream)
type IssueIterator interface {
	Next() (*analysis.Issue, error)
}

// RuleResolver looks up rule details (satisfied by client.Client)
type RuleResolver interface {
	GetRuleDetails(ctx context.Context, ruleKey analysis.RuleKey) (*analysis.RuleDetails, error)
}

// ContentAnalyzer starts content analyses (satisfied by client.Client)
type ContentAnalyzer interface {
	AnalyzeContent(ctx context.Context, request *analysis.ContentAnalysisRequest) (*client.IssueStream, error)
}

type Paging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

type TextRange struct {
	StartLine   int32 `json:"startLine"`
	EndLine     int32 `json:"endLine"`
	StartOffset int32 `json:"startOffset"`
	EndOffset   int32 `json:"endOffset"`
}

type Issue struct {
	Rule      string    `json:"rule"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Component string    `json:"component,omitempty"`
	TextRange TextRange `json:"textRange"`
}

type Rule struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	LangName string `json:"langName"`
}

// Report is a single page holding every issue of one analysis, with the details of the rules
// that raised them
type Report struct {
	Log    []string `json:"log"`
	Total  int      `json:"total"`
	P      int      `json:"p"`
	PS     int      `json:"ps"`
	Paging Paging   `json:"paging"`
	Issues []Issue  `json:"issues"`
	Rules  []Rule   `json:"rules"`
}

func newIssue(issue *analysis.Issue) Issue {
	reportIssue := Issue{
		Rule:     issue.RuleKey,
		Severity: issue.Severity.String(),
		Message:  issue.Message,
		TextRange: TextRange{
			StartLine:   issue.StartLine,
			EndLine:     issue.EndLine,
			StartOffset: issue.StartLineOffset,
			EndOffset:   issue.EndLineOffset,
		},
	}

	if issue.InputFile != nil {
		reportIssue.Component = issue.InputFile.Path
	}

	return reportIssue
}

func newRule(ruleDetails *analysis.RuleDetails) Rule {
	return Rule{
		Key:      ruleDetails.Key,
		Name:     ruleDetails.Name,
		Lang:     ruleDetails.Language,
		LangName: ruleDetails.Language,
	}
}
