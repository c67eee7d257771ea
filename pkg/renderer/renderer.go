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

package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nuclio/errors"
	"sigs.k8s.io/yaml"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat returns the format of the given name, FormatTable if empty
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return Format(name), nil
	default:
		return "", errors.Errorf("Unknown output format %q", name)
	}
}

type Renderer struct {
	output io.Writer
}

func NewRenderer(output io.Writer) *Renderer {
	return &Renderer{
		output: output,
	}
}

// RenderTable writes a borderless table. footer is omitted when empty
func (r *Renderer) RenderTable(header table.Row, records []table.Row, footer table.Row) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.output)
	tw.SetStyle(table.Style{
		Name: "Report",
		Box: table.BoxStyle{
			MiddleVertical: "|",
			PaddingLeft:    " ",
			PaddingRight:   " ",
		},
		Options: table.Options{
			DoNotColorBordersAndSeparators: true,
			DrawBorder:                     false,
			SeparateColumns:                true,
			SeparateFooter:                 false,
			SeparateHeader:                 false,
			SeparateRows:                   false,
		},
		Color:  table.ColorOptionsDefault,
		Format: table.FormatOptionsDefault,
		HTML:   table.DefaultHTMLOptions,
		Title:  table.TitleOptionsDefault,
	})
	tw.AppendHeader(header)
	tw.AppendRows(records)

	if len(footer) > 0 {
		tw.AppendFooter(footer)
	}

	tw.Render()
}

func (r *Renderer) RenderYAML(items interface{}) error {
	body, err := yaml.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "Failed to render YAML")
	}

	if _, err := r.output.Write(body); err != nil {
		return errors.Wrap(err, "Failed to write YAML")
	}

	return nil
}

func (r *Renderer) RenderJSON(items interface{}) error {
	body, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "Failed to render JSON")
	}

	var pbody bytes.Buffer
	if err := json.Indent(&pbody, body, "", "\t"); err != nil {
		return errors.Wrap(err, "Failed to indent JSON")
	}

	if _, err := fmt.Fprintln(r.output, pbody.String()); err != nil {
		return errors.Wrap(err, "Failed to write JSON")
	}

	return nil
}
