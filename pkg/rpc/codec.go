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
	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"github.com/nuclio/errors"
)

// CodecName is the gRPC content subtype used with the daemon
const CodecName = "proto"

// Codec marshals analysis.WireMessage values for gRPC. it is forced per call (client) or per
// server, leaving the process-wide codec registry untouched
type Codec struct{}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	message, ok := v.(analysis.WireMessage)
	if !ok {
		return nil, errors.Errorf("Can't marshal %T, it is not a wire message", v)
	}

	return message.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	message, ok := v.(analysis.WireMessage)
	if !ok {
		return errors.Errorf("Can't unmarshal into %T, it is not a wire message", v)
	}

	if err := message.UnmarshalWire(data); err != nil {
		return errors.Wrapf(err, "Failed to unmarshal %T", v)
	}

	return nil
}

func (Codec) Name() string {
	return CodecName
}

// Void is the daemon's empty message
type Void struct{}

func (*Void) MarshalWire() []byte {
	return nil
}

func (*Void) UnmarshalWire(data []byte) error {
	return nil
}
