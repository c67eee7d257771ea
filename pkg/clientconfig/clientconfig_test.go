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

package clientconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/suite"
)

type ClientConfigTestSuite struct {
	suite.Suite
	reader  *Reader
	tempDir string
}

func (suite *ClientConfigTestSuite) SetupTest() {
	var err error

	suite.reader, err = NewReader()
	suite.Require().NoError(err)
	suite.tempDir = suite.T().TempDir()

	// isolate from the environment running the tests
	suite.T().Setenv(AddressEnvVar, "")
	suite.T().Setenv(TLSEnvVar, "")
	suite.T().Setenv(TLSCACertEnvVar, "")
}

func (suite *ClientConfigTestSuite) TestReadFileOrDefaultWithoutFile() {
	configuration, err := suite.reader.ReadFileOrDefault(filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Require().NoError(err)

	suite.Require().Equal(DefaultAddress, configuration.Address)
	suite.Require().False(configuration.TLS.Enabled)
	suite.Require().Equal(10*time.Second, configuration.GetDialTimeout())
	suite.Require().Zero(configuration.GetCallTimeout())
	suite.Require().Equal(DefaultRuleLookupConcurrency, configuration.Report.RuleLookupConcurrency)
}

func (suite *ClientConfigTestSuite) TestReadFileOrDefaultUnreadablePath() {
	notADir := filepath.Join(suite.tempDir, "client.yaml")
	suite.Require().NoError(os.WriteFile(notADir, []byte("address: localhost:8050\n"), 0644))

	// opening a path below a regular file fails with ENOTDIR, not ENOENT
	_, err := suite.reader.ReadFileOrDefault(filepath.Join(notADir, "client.yaml"))
	suite.Require().Error(err)
}

func (suite *ClientConfigTestSuite) TestReadFileOrDefaultMergesDefaults() {
	configurationPath := filepath.Join(suite.tempDir, "client.yaml")
	err := os.WriteFile(configurationPath, []byte(`
address: daemon.local:9000
callTimeout: 30s
dial:
  block: true
report:
  ruleLookupConcurrency: 2
`), 0644)
	suite.Require().NoError(err)

	configuration, err := suite.reader.ReadFileOrDefault(configurationPath)
	suite.Require().NoError(err)

	suite.Require().Equal("daemon.local:9000", configuration.Address)
	suite.Require().True(configuration.Dial.Block)
	suite.Require().Equal(10*time.Second, configuration.GetDialTimeout())
	suite.Require().Equal(30*time.Second, configuration.GetCallTimeout())
	suite.Require().Equal(2, configuration.Report.RuleLookupConcurrency)
	suite.Require().Equal(DefaultUserAgent, configuration.UserAgent)
}

func (suite *ClientConfigTestSuite) TestReadRejectsUnknownFields() {
	configuration := Configuration{}
	err := suite.reader.Read(strings.NewReader("adress: typo:1"), &configuration)
	suite.Require().Error(err)
}

func (suite *ClientConfigTestSuite) TestAddressPrecedence() {
	suite.T().Setenv(AddressEnvVar, "from-env:8050")

	for _, testCase := range []struct {
		name            string
		configuration   Configuration
		expectedAddress string
	}{
		{
			name:            "Explicit",
			configuration:   Configuration{Address: "explicit:1234"},
			expectedAddress: "explicit:1234",
		},
		{
			name:            "Environment",
			configuration:   Configuration{},
			expectedAddress: "from-env:8050",
		},
	} {
		suite.Run(testCase.name, func() {
			configuration := testCase.configuration
			suite.Require().NoError(Resolve(&configuration))
			suite.Require().Equal(testCase.expectedAddress, configuration.Address)
		})
	}
}

func (suite *ClientConfigTestSuite) TestTLSFromEnvironment() {
	caCertPath := filepath.Join(suite.tempDir, "ca.pem")
	suite.Require().NoError(os.WriteFile(caCertPath, []byte("cert"), 0644))
	suite.T().Setenv(TLSCACertEnvVar, caCertPath)

	configuration := Configuration{}
	suite.Require().NoError(Resolve(&configuration))
	suite.Require().True(configuration.TLS.Enabled)
	suite.Require().Equal(caCertPath, configuration.TLS.CACertPath)
}

func (suite *ClientConfigTestSuite) TestTLSWithSystemRootsFromEnvironment() {
	suite.T().Setenv(TLSEnvVar, "true")

	configuration := Configuration{}
	suite.Require().NoError(Resolve(&configuration))
	suite.Require().True(configuration.TLS.Enabled)
	suite.Require().Empty(configuration.TLS.CACertPath)
}

func (suite *ClientConfigTestSuite) TestHomeDirIsExpanded() {
	suite.T().Setenv("HOME", suite.tempDir)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	configuration := Configuration{WorkingDir: "~"}
	suite.Require().NoError(Resolve(&configuration))
	suite.Require().Equal(suite.tempDir, configuration.WorkingDir)
}

func (suite *ClientConfigTestSuite) TestNewConfigurationFromAttributes() {
	configuration, err := NewConfigurationFromAttributes(map[string]interface{}{
		"address":     "attr-host:8050",
		"callTimeout": "5s",
		"tls": map[string]interface{}{
			"enabled":            false,
			"serverNameOverride": "daemon",
		},
		"maxReceiveMessageSizeBytes": "1048576",
	})
	suite.Require().NoError(err)

	suite.Require().Equal("attr-host:8050", configuration.Address)
	suite.Require().Equal(5*time.Second, configuration.GetCallTimeout())
	suite.Require().Equal("daemon", configuration.TLS.ServerNameOverride)
	suite.Require().Equal(1048576, configuration.MaxReceiveMessageSizeBytes)

	_, err = NewConfigurationFromAttributes(map[string]interface{}{"unknown": true})
	suite.Require().Error(err)
}

func (suite *ClientConfigTestSuite) TestValidate() {
	for _, testCase := range []struct {
		name          string
		configuration Configuration
	}{
		{
			name:          "NoPort",
			configuration: Configuration{Address: "localhost"},
		},
		{
			name:          "BadDialTimeout",
			configuration: Configuration{Address: "localhost:8050", Dial: Dial{Timeout: "soon"}},
		},
		{
			name:          "NegativeCallTimeout",
			configuration: Configuration{Address: "localhost:8050", CallTimeout: "-1s"},
		},
		{
			name: "MissingCACert",
			configuration: Configuration{
				Address: "localhost:8050",
				TLS:     TLS{Enabled: true, CACertPath: "/definitely/not/here.pem"},
			},
		},
		{
			name:          "WorkingDirIsNotADir",
			configuration: Configuration{Address: "localhost:8050", WorkingDir: "/definitely/not/here"},
		},
	} {
		suite.Run(testCase.name, func() {
			configuration := testCase.configuration
			suite.Require().Error(Resolve(&configuration))
		})
	}
}

func TestClientConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ClientConfigTestSuite))
}
