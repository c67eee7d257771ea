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
	"fmt"
	"io"

	"github.com/nuclio/sonarlint-client/pkg/renderer"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nuclio/errors"
)

// Write renders the report in the given format
func (r *Report) Write(output io.Writer, format renderer.Format) error {
	switch format {
	case renderer.FormatJSON:
		return r.WriteJSON(output)
	case renderer.FormatYAML:
		return renderer.NewRenderer(output).RenderYAML(r)
	case renderer.FormatTable:
		return r.WriteTable(output)
	default:
		return errors.Errorf("Unsupported report format %q", format)
	}
}

// WriteJSON renders the report as the daemon's HTTP front end does
func (r *Report) WriteJSON(output io.Writer) error {
	return renderer.NewRenderer(output).RenderJSON(r)
}

// WriteTable renders one row per issue, followed by the rules that raised them
func (r *Report) WriteTable(output io.Writer) error {
	tableRenderer := renderer.NewRenderer(output)

	ruleNames := map[string]string{}
	for _, rule := range r.Rules {
		ruleNames[rule.Key] = rule.Name
	}

	var issueRecords []table.Row
	for _, issue := range r.Issues {
		issueRecords = append(issueRecords, table.Row{
			issue.Severity,
			issue.Rule,
			ruleNames[issue.Rule],
			formatLocation(issue),
			issue.Message,
		})
	}

	tableRenderer.RenderTable(table.Row{"Severity", "Rule", "Rule name", "Location", "Message"},
		issueRecords,
		table.Row{"Total", r.Total})

	return nil
}

func formatLocation(issue Issue) string {
	location := fmt.Sprintf("%d:%d-%d:%d",
		issue.TextRange.StartLine,
		issue.TextRange.StartOffset,
		issue.TextRange.EndLine,
		issue.TextRange.EndOffset)

	if issue.Component != "" {
		return issue.Component + ":" + location
	}

	return location
}
