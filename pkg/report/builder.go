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
	"fmt"
	"io"

	"github.com/nuclio/sonarlint-client/pkg/analysis"
	"github.com/nuclio/sonarlint-client/pkg/errgroup"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/samber/lo"
)

const DefaultLanguage = analysis.LanguageJavaScript

// Builder turns the issues of one analysis into a Report
type Builder struct {
	logger                logger.Logger
	ruleResolver          RuleResolver
	ruleLookupConcurrency int
}

// NewBuilder creates a builder. a non positive ruleLookupConcurrency uses the errgroup default
func NewBuilder(parentLogger logger.Logger, ruleResolver RuleResolver, ruleLookupConcurrency int) *Builder {
	return &Builder{
		logger:                parentLogger.GetChild("report"),
		ruleResolver:          ruleResolver,
		ruleLookupConcurrency: ruleLookupConcurrency,
	}
}

// BuildForContent analyzes content and reports on it. an empty language defaults to
// DefaultLanguage, which is noted in the report's log
func (b *Builder) BuildForContent(ctx context.Context,
	analyzer ContentAnalyzer,
	content string,
	language analysis.Language) (*Report, error) {
	var log []string

	if content == "" {
		return nil, errors.New("No content")
	}

	if language == "" {
		language = DefaultLanguage
		log = append(log, fmt.Sprintf("No language specified, defaulting to %s", language))
	}

	issueStream, err := analyzer.AnalyzeContent(ctx, &analysis.ContentAnalysisRequest{
		Content:  content,
		Language: language,
		Charset:  analysis.DefaultCharset,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to start content analysis")
	}

	defer issueStream.Close()

	return b.build(ctx, issueStream, log)
}

// Build drains issues and resolves the details of every distinct rule that raised them. a failed
// analysis fails the build, a failed rule lookup is only noted in the report's log
func (b *Builder) Build(ctx context.Context, issues IssueIterator) (*Report, error) {
	return b.build(ctx, issues, nil)
}

func (b *Builder) build(ctx context.Context, issueIterator IssueIterator, log []string) (*Report, error) {
	log = append(log, "starting analysis")

	var issues []*analysis.Issue
	for {
		issue, err := issueIterator.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "Analysis failed after %d issues", len(issues))
		}

		issues = append(issues, issue)
	}

	log = append(log, "analysis done")

	rules, ruleLog, err := b.resolveRules(ctx, issues)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to resolve rules")
	}

	log = append(log, ruleLog...)

	report := &Report{
		Log:   log,
		Total: len(issues),
		P:     1,
		PS:    len(issues),
		Paging: Paging{
			PageIndex: 1,
			PageSize:  len(issues),
			Total:     len(issues),
		},
		Issues: lo.Map(issues, func(issue *analysis.Issue, _ int) Issue {
			return newIssue(issue)
		}),
		Rules: rules,
	}

	b.logger.DebugWith("Built report",
		"issues", report.Total,
		"rules", len(report.Rules))

	return report, nil
}

// resolveRules looks up distinct rule keys concurrently. rules and log lines keep the order in
// which rule keys first appeared
func (b *Builder) resolveRules(ctx context.Context, issues []*analysis.Issue) ([]Rule, []string, error) {
	ruleKeys := lo.Uniq(lo.FilterMap(issues, func(issue *analysis.Issue, _ int) (string, bool) {
		return issue.RuleKey, issue.RuleKey != ""
	}))

	log := []string{"loading rules"}
	if len(ruleKeys) == 0 {
		return []Rule{}, log, nil
	}

	resolvedRules := make([]*analysis.RuleDetails, len(ruleKeys))
	lookupErrors := make([]error, len(ruleKeys))

	lookupGroup, lookupCtx := errgroup.WithContext(ctx, b.logger, b.ruleLookupConcurrency)

	// every goroutine owns one slot of the results
	for ruleKeyIndex, ruleKey := range ruleKeys {
		ruleKeyIndex, ruleKey := ruleKeyIndex, ruleKey

		lookupGroup.Go(fmt.Sprintf("Get rule %s", ruleKey), func() error {
			ruleDetails, err := b.ruleResolver.GetRuleDetails(lookupCtx, analysis.RuleKey{Key: ruleKey})
			if err != nil {
				lookupErrors[ruleKeyIndex] = err
				return nil
			}

			resolvedRules[ruleKeyIndex] = ruleDetails
			return nil
		})
	}

	// only panics surface here
	if err := lookupGroup.Wait(); err != nil {
		return nil, nil, err
	}

	var rules []Rule
	for ruleKeyIndex, ruleKey := range ruleKeys {
		log = append(log, fmt.Sprintf("loading rule %s", ruleKey))

		if lookupErr := lookupErrors[ruleKeyIndex]; lookupErr != nil {
			b.logger.WarnWith("Failed to get rule details",
				"ruleKey", ruleKey,
				"err", errors.RootCause(lookupErr).Error())

			log = append(log, fmt.Sprintf("failed to load rule %s: %s",
				ruleKey,
				errors.RootCause(lookupErr).Error()))
			continue
		}

		rules = append(rules, newRule(resolvedRules[ruleKeyIndex]))
	}

	if rules == nil {
		rules = []Rule{}
	}

	return rules, log, nil
}
