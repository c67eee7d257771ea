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

package renderer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/suite"
)

type RendererTestSuite struct {
	suite.Suite
	output   *bytes.Buffer
	renderer *Renderer
}

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (suite *RendererTestSuite) SetupTest() {
	suite.output = &bytes.Buffer{}
	suite.renderer = NewRenderer(suite.output)
}

func (suite *RendererTestSuite) TestRenderTable() {
	suite.renderer.RenderTable(table.Row{"Name", "Count"},
		[]table.Row{{"first", 1}, {"second", 2}},
		table.Row{"Total", 3})

	rendered := suite.output.String()
	suite.Require().Contains(rendered, "NAME")
	suite.Require().Contains(rendered, "second")
	suite.Require().Contains(rendered, "TOTAL")
}

func (suite *RendererTestSuite) TestRenderJSON() {
	suite.Require().NoError(suite.renderer.RenderJSON([]item{{Name: "first", Count: 1}}))

	var decoded []item
	suite.Require().NoError(json.Unmarshal(suite.output.Bytes(), &decoded))
	suite.Require().Equal([]item{{Name: "first", Count: 1}}, decoded)
}

func (suite *RendererTestSuite) TestRenderYAML() {
	suite.Require().NoError(suite.renderer.RenderYAML(item{Name: "first", Count: 1}))
	suite.Require().Equal("count: 1\nname: first\n", suite.output.String())
}

func (suite *RendererTestSuite) TestParseFormat() {
	format, err := ParseFormat("")
	suite.Require().NoError(err)
	suite.Require().Equal(FormatTable, format)

	format, err = ParseFormat("yaml")
	suite.Require().NoError(err)
	suite.Require().Equal(FormatYAML, format)

	_, err = ParseFormat("xml")
	suite.Require().Error(err)
}

func TestRendererTestSuite(t *testing.T) {
	suite.Run(t, new(RendererTestSuite))
}
