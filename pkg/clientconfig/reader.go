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
	"io"
	"os"

	"github.com/nuclio/sonarlint-client/pkg/common"

	"github.com/imdario/mergo"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/nuclio/errors"
	"sigs.k8s.io/yaml"
)

type Reader struct{}

func NewReader() (*Reader, error) {
	return &Reader{}, nil
}

// Read parses a YAML (or JSON) configuration
func (r *Reader) Read(reader io.Reader, configuration *Configuration) error {
	configBytes, err := io.ReadAll(reader)
	if err != nil {
		return errors.Wrap(err, "Failed to read client configuration")
	}

	if err := yaml.UnmarshalStrict(configBytes, configuration); err != nil {
		return errors.Wrap(err, "Failed to parse client configuration")
	}

	return nil
}

// ReadFileOrDefault reads the configuration file at path, falling back to the default configuration
// when it does not exist. the returned configuration is resolved and validated
func (r *Reader) ReadFileOrDefault(configurationPath string) (*Configuration, error) {
	var configuration Configuration

	configurationPath, err := homedir.Expand(configurationPath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to expand configuration path")
	}

	// if there's no configuration file, use the default configuration. otherwise try to parse it
	configurationFile, err := os.Open(configurationPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "Failed to open configuration file %q", configurationPath)
	}

	if err == nil {
		defer configurationFile.Close() // nolint: errcheck

		if err := r.Read(configurationFile, &configuration); err != nil {
			return nil, errors.Wrapf(err, "Failed to read configuration file %q", configurationPath)
		}
	}

	if err := Resolve(&configuration); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// GetDefaultConfiguration returns the configuration used when nothing is specified
func (r *Reader) GetDefaultConfiguration() *Configuration {
	return &Configuration{
		Address: DefaultAddress,
		Dial: Dial{
			Timeout: DefaultDialTimeout,
		},
		UserAgent: DefaultUserAgent,
		Report: Report{
			RuleLookupConcurrency: DefaultRuleLookupConcurrency,
		},
	}
}

// NewConfigurationFromAttributes decodes a configuration from a generic attribute map
// (e.g. a section of a larger configuration document), then resolves and validates it
func NewConfigurationFromAttributes(attributes map[string]interface{}) (*Configuration, error) {
	configuration := Configuration{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &configuration,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create attribute decoder")
	}

	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "Failed to decode attributes")
	}

	if err := Resolve(&configuration); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Resolve fills what the configuration leaves unset, from the environment first and then from
// the defaults, and validates the result
func Resolve(configuration *Configuration) error {
	if configuration.Address == "" {
		configuration.Address = common.GetEnvOrDefaultString(AddressEnvVar, "")
	}

	if !configuration.TLS.Enabled {
		configuration.TLS.Enabled = common.GetEnvOrDefaultBool(TLSEnvVar, false)
	}

	if configuration.TLS.CACertPath == "" {
		if caCertPath := common.GetEnvOrDefaultString(TLSCACertEnvVar, ""); caCertPath != "" {
			configuration.TLS.Enabled = true
			configuration.TLS.CACertPath = caCertPath
		}
	}

	if err := expandPaths(configuration); err != nil {
		return err
	}

	reader, _ := NewReader()
	if err := mergo.Merge(configuration, reader.GetDefaultConfiguration()); err != nil {
		return errors.Wrap(err, "Failed to apply default configuration")
	}

	if err := configuration.Validate(); err != nil {
		return errors.Wrap(err, "Invalid client configuration")
	}

	return nil
}

// expandPaths resolves a leading "~" in configured paths
func expandPaths(configuration *Configuration) error {
	for _, path := range []*string{
		&configuration.TLS.CACertPath,
		&configuration.WorkingDir,
	} {
		expandedPath, err := homedir.Expand(*path)
		if err != nil {
			return errors.Wrapf(err, "Failed to expand path %q", *path)
		}

		*path = expandedPath
	}

	return nil
}
