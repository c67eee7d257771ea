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
	"net"
	"time"

	"github.com/nuclio/sonarlint-client/pkg/common"

	"github.com/nuclio/errors"
)

const (
	DefaultAddress               = "localhost:8050"
	DefaultDialTimeout           = "10s"
	DefaultUserAgent             = "sonarlint-client"
	DefaultRuleLookupConcurrency = 5

	AddressEnvVar   = "SONARLINT_DAEMON_ADDRESS"
	TLSEnvVar       = "SONARLINT_DAEMON_TLS"
	TLSCACertEnvVar = "SONARLINT_DAEMON_TLS_CA"
)

// TLS is disabled by default, the daemon listens on an insecure loopback port
type TLS struct {
	Enabled            bool   `json:"enabled,omitempty"`
	CACertPath         string `json:"caCertPath,omitempty"`
	ServerNameOverride string `json:"serverNameOverride,omitempty"`
}

type Dial struct {

	// wait for the connection to be established when creating the client
	Block   bool   `json:"block,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type Report struct {
	RuleLookupConcurrency int `json:"ruleLookupConcurrency,omitempty"`
}

// Configuration of the analysis client
type Configuration struct {
	Address                    string `json:"address,omitempty"`
	TLS                        TLS    `json:"tls,omitempty"`
	Dial                       Dial   `json:"dial,omitempty"`
	CallTimeout                string `json:"callTimeout,omitempty"`
	MaxReceiveMessageSizeBytes int    `json:"maxReceiveMessageSizeBytes,omitempty"`
	UserAgent                  string `json:"userAgent,omitempty"`

	// relative file paths are resolved against this directory (the process working directory if empty)
	WorkingDir           string `json:"workingDir,omitempty"`
	RequireExistingFiles bool   `json:"requireExistingFiles,omitempty"`

	Report Report `json:"report,omitempty"`
}

// Validate checks the configuration, expected to be called after defaults were applied
func (c *Configuration) Validate() error {
	if c.Address == "" {
		return errors.New("Daemon address is required")
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return errors.Wrapf(err, "Daemon address %q must be in host:port form", c.Address)
	}

	if _, err := parseOptionalDuration(c.Dial.Timeout); err != nil {
		return errors.Wrap(err, "Invalid dial timeout")
	}

	if _, err := parseOptionalDuration(c.CallTimeout); err != nil {
		return errors.Wrap(err, "Invalid call timeout")
	}

	if c.MaxReceiveMessageSizeBytes < 0 {
		return errors.New("Max receive message size can't be negative")
	}

	if c.Report.RuleLookupConcurrency < 0 {
		return errors.New("Rule lookup concurrency can't be negative")
	}

	if c.TLS.Enabled && c.TLS.CACertPath != "" && !common.FileExists(c.TLS.CACertPath) {
		return errors.Errorf("CA certificate %q does not exist", c.TLS.CACertPath)
	}

	if c.WorkingDir != "" && !common.IsDir(c.WorkingDir) {
		return errors.Errorf("Working directory %q is not a directory", c.WorkingDir)
	}

	return nil
}

// GetDialTimeout returns the dial timeout, zero if none
func (c *Configuration) GetDialTimeout() time.Duration {
	timeout, _ := parseOptionalDuration(c.Dial.Timeout)
	return timeout
}

// GetCallTimeout returns the per call timeout, zero if none
func (c *Configuration) GetCallTimeout() time.Duration {
	timeout, _ := parseOptionalDuration(c.CallTimeout)
	return timeout
}

func parseOptionalDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	if duration < 0 {
		return 0, errors.Errorf("Duration %q can't be negative", value)
	}

	return duration, nil
}
