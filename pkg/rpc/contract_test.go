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

package rpc

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	protoMessagePattern = regexp.MustCompile(`^message (\w+) \{`)
	protoFieldPattern   = regexp.MustCompile(`^\s*(repeated\s+)?(map<[^>]+>|\w+)\s+\w+\s*=\s*(\d+);`)
)

type ContractTestSuite struct {
	suite.Suite
}

// every message must encode exactly the fields the .proto declares, with matching wire types
func (suite *ContractTestSuite) TestMessagesMatchProtoFile() {
	declaredFields := suite.readProtoFields("sonarlint-daemon.proto")

	inputFile := analysis.InputFile{Path: "/src/bad.js", Charset: "UTF-8", IsTest: true, UserObject: "id"}

	for messageName, message := range map[string]analysis.WireMessage{
		"Void": &Void{},
		"ContentAnalysisReq": &analysis.ContentAnalysisRequest{
			Content:  "arr = [1, 2, 3];",
			Language: analysis.LanguageJavaScript,
			Charset:  "UTF-8",
		},
		"AnalysisReq": &analysis.FileAnalysisRequest{
			Files:      []analysis.InputFile{inputFile},
			BaseDir:    "/src",
			WorkDir:    "/tmp/work",
			Properties: map[string]string{"sonar.exclusions": "*.min.js"},
		},
		"InputFile": &inputFile,
		"Issue": &analysis.Issue{
			Severity:        analysis.SeverityBlocker,
			StartLine:       1,
			StartLineOffset: 2,
			EndLine:         3,
			EndLineOffset:   4,
			Message:         "message",
			RuleKey:         "javascript:S1481",
			RuleName:        "rule",
			InputFile:       &inputFile,
		},
		"RuleKey": &analysis.RuleKey{Key: "javascript:S1481"},
		"RuleDetails": &analysis.RuleDetails{
			Key:             "javascript:S1481",
			Name:            "name",
			Language:        "js",
			Severity:        "MINOR",
			HTMLDescription: "<p>description</p>",
			Tags:            []string{"unused"},
			Type:            "CODE_SMELL",
		},
		"LogEvent": &analysis.LogEvent{Level: "INFO", Message: "log", IsDebug: true},
	} {
		suite.Run(messageName, func() {
			expectedFields, found := declaredFields[messageName]
			suite.Require().True(found, "Message %s is not declared", messageName)
			suite.Require().Equal(expectedFields, suite.encodedFields(message.MarshalWire()))
		})
	}
}

func (suite *ContractTestSuite) readProtoFields(path string) map[string]map[protowire.Number]protowire.Type {
	protoContents, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(string(protoContents), "\n")

	// message typed fields may refer to messages declared further down
	messageNames := map[string]bool{}
	for _, line := range lines {
		if match := protoMessagePattern.FindStringSubmatch(line); match != nil {
			messageNames[match[1]] = true
		}
	}

	messages := map[string]map[protowire.Number]protowire.Type{}
	currentMessage := ""
	depth := 0

	for _, line := range lines {
		if match := protoMessagePattern.FindStringSubmatch(line); match != nil {
			currentMessage = match[1]
			messages[currentMessage] = map[protowire.Number]protowire.Type{}
		}

		if match := protoFieldPattern.FindStringSubmatch(line); match != nil && depth == 1 && currentMessage != "" {
			number, err := strconv.Atoi(match[3])
			suite.Require().NoError(err)

			wireType := protowire.VarintType
			if match[2] == "string" || strings.HasPrefix(match[2], "map<") || messageNames[match[2]] {
				wireType = protowire.BytesType
			}

			messages[currentMessage][protowire.Number(number)] = wireType
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth == 0 {
			currentMessage = ""
		}
	}

	return messages
}

func (suite *ContractTestSuite) encodedFields(data []byte) map[protowire.Number]protowire.Type {
	fields := map[protowire.Number]protowire.Type{}

	for len(data) > 0 {
		number, wireType, tagLength := protowire.ConsumeTag(data)
		suite.Require().GreaterOrEqual(tagLength, 0)

		valueLength := protowire.ConsumeFieldValue(number, wireType, data[tagLength:])
		suite.Require().GreaterOrEqual(valueLength, 0)

		fields[number] = wireType
		data = data[tagLength+valueLength:]
	}

	return fields
}

func TestContractTestSuite(t *testing.T) {
	suite.Run(t, new(ContractTestSuite))
}
