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

package analysis

import (
	"sort"

	"github.com/nuclio/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// WireMessage is implemented by every message exchanged with the daemon. Encoding follows
// proto3 rules: zero scalars are omitted and unknown fields are skipped when decoding
type WireMessage interface {
	MarshalWire() []byte
	UnmarshalWire(data []byte) error
}

// field numbers of the daemon protocol (package "sonarlint")
const (
	contentRequestContentField  protowire.Number = 1
	contentRequestLanguageField protowire.Number = 2
	contentRequestCharsetField  protowire.Number = 3

	fileRequestBaseDirField    protowire.Number = 1
	fileRequestWorkDirField    protowire.Number = 2
	fileRequestFileField       protowire.Number = 3
	fileRequestPropertiesField protowire.Number = 4

	inputFilePathField       protowire.Number = 1
	inputFileCharsetField    protowire.Number = 2
	inputFileIsTestField     protowire.Number = 3
	inputFileUserObjectField protowire.Number = 4

	issueSeverityField        protowire.Number = 1
	issueStartLineField       protowire.Number = 2
	issueStartLineOffsetField protowire.Number = 3
	issueEndLineField         protowire.Number = 4
	issueEndLineOffsetField   protowire.Number = 5
	issueMessageField         protowire.Number = 6
	issueRuleKeyField         protowire.Number = 7
	issueRuleNameField        protowire.Number = 8
	issueInputFileField       protowire.Number = 9

	ruleKeyKeyField protowire.Number = 1

	ruleDetailsKeyField             protowire.Number = 1
	ruleDetailsNameField            protowire.Number = 2
	ruleDetailsLanguageField        protowire.Number = 3
	ruleDetailsSeverityField        protowire.Number = 4
	ruleDetailsHTMLDescriptionField protowire.Number = 5
	ruleDetailsTagsField            protowire.Number = 6
	ruleDetailsTypeField            protowire.Number = 7

	logEventLevelField   protowire.Number = 1
	logEventLogField     protowire.Number = 2
	logEventIsDebugField protowire.Number = 3

	mapEntryKeyField   protowire.Number = 1
	mapEntryValueField protowire.Number = 2
)

func (r *ContentAnalysisRequest) MarshalWire() []byte {
	var data []byte

	data = appendString(data, contentRequestContentField, r.Content)
	data = appendString(data, contentRequestLanguageField, string(r.Language))
	data = appendString(data, contentRequestCharsetField, r.Charset)

	return data
}

func (r *ContentAnalysisRequest) UnmarshalWire(data []byte) error {
	*r = ContentAnalysisRequest{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		var err error

		switch num {
		case contentRequestContentField:
			r.Content, err = reader.stringValue(num, typ)
		case contentRequestLanguageField:
			var language string
			language, err = reader.stringValue(num, typ)
			r.Language = Language(language)
		case contentRequestCharsetField:
			r.Charset, err = reader.stringValue(num, typ)
		default:
			err = reader.skip(num, typ)
		}

		return err
	})
}

func (r *FileAnalysisRequest) MarshalWire() []byte {
	var data []byte

	data = appendString(data, fileRequestBaseDirField, r.BaseDir)
	data = appendString(data, fileRequestWorkDirField, r.WorkDir)

	for fileIndex := range r.Files {
		data = appendMessage(data, fileRequestFileField, r.Files[fileIndex].MarshalWire())
	}

	// sorted, so equal requests encode to equal bytes
	propertyKeys := make([]string, 0, len(r.Properties))
	for key := range r.Properties {
		propertyKeys = append(propertyKeys, key)
	}
	sort.Strings(propertyKeys)

	for _, key := range propertyKeys {
		var entry []byte
		entry = appendString(entry, mapEntryKeyField, key)
		entry = appendString(entry, mapEntryValueField, r.Properties[key])
		data = appendMessage(data, fileRequestPropertiesField, entry)
	}

	return data
}

func (r *FileAnalysisRequest) UnmarshalWire(data []byte) error {
	*r = FileAnalysisRequest{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		var err error

		switch num {
		case fileRequestBaseDirField:
			r.BaseDir, err = reader.stringValue(num, typ)
		case fileRequestWorkDirField:
			r.WorkDir, err = reader.stringValue(num, typ)
		case fileRequestFileField:
			var value []byte
			if value, err = reader.bytesValue(num, typ); err != nil {
				return err
			}

			inputFile := InputFile{}
			if err = inputFile.UnmarshalWire(value); err != nil {
				return errors.Wrap(err, "Failed to decode input file")
			}

			r.Files = append(r.Files, inputFile)
		case fileRequestPropertiesField:
			var value []byte
			if value, err = reader.bytesValue(num, typ); err != nil {
				return err
			}

			key, propertyValue, entryErr := decodeStringMapEntry(value)
			if entryErr != nil {
				return errors.Wrap(entryErr, "Failed to decode property")
			}

			if r.Properties == nil {
				r.Properties = map[string]string{}
			}
			r.Properties[key] = propertyValue
		default:
			err = reader.skip(num, typ)
		}

		return err
	})
}

func (f *InputFile) MarshalWire() []byte {
	var data []byte

	data = appendString(data, inputFilePathField, f.Path)
	data = appendString(data, inputFileCharsetField, f.Charset)
	data = appendBool(data, inputFileIsTestField, f.IsTest)
	data = appendString(data, inputFileUserObjectField, f.UserObject)

	return data
}

func (f *InputFile) UnmarshalWire(data []byte) error {
	*f = InputFile{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		var err error

		switch num {
		case inputFilePathField:
			f.Path, err = reader.stringValue(num, typ)
		case inputFileCharsetField:
			f.Charset, err = reader.stringValue(num, typ)
		case inputFileIsTestField:
			var value uint64
			value, err = reader.varintValue(num, typ)
			f.IsTest = protowire.DecodeBool(value)
		case inputFileUserObjectField:
			f.UserObject, err = reader.stringValue(num, typ)
		default:
			err = reader.skip(num, typ)
		}

		return err
	})
}

func (i *Issue) MarshalWire() []byte {
	var data []byte

	data = appendInt32(data, issueSeverityField, int32(i.Severity))
	data = appendInt32(data, issueStartLineField, i.StartLine)
	data = appendInt32(data, issueStartLineOffsetField, i.StartLineOffset)
	data = appendInt32(data, issueEndLineField, i.EndLine)
	data = appendInt32(data, issueEndLineOffsetField, i.EndLineOffset)
	data = appendString(data, issueMessageField, i.Message)
	data = appendString(data, issueRuleKeyField, i.RuleKey)
	data = appendString(data, issueRuleNameField, i.RuleName)

	if i.InputFile != nil {
		data = appendMessage(data, issueInputFileField, i.InputFile.MarshalWire())
	}

	return data
}

func (i *Issue) UnmarshalWire(data []byte) error {
	*i = Issue{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		switch num {
		case issueSeverityField:
			value, err := reader.int32Value(num, typ)
			i.Severity = Severity(value)
			return err
		case issueStartLineField:
			return reader.int32Into(num, typ, &i.StartLine)
		case issueStartLineOffsetField:
			return reader.int32Into(num, typ, &i.StartLineOffset)
		case issueEndLineField:
			return reader.int32Into(num, typ, &i.EndLine)
		case issueEndLineOffsetField:
			return reader.int32Into(num, typ, &i.EndLineOffset)
		case issueMessageField:
			return reader.stringInto(num, typ, &i.Message)
		case issueRuleKeyField:
			return reader.stringInto(num, typ, &i.RuleKey)
		case issueRuleNameField:
			return reader.stringInto(num, typ, &i.RuleName)
		case issueInputFileField:
			value, err := reader.bytesValue(num, typ)
			if err != nil {
				return err
			}

			i.InputFile = &InputFile{}
			if err := i.InputFile.UnmarshalWire(value); err != nil {
				return errors.Wrap(err, "Failed to decode issue input file")
			}

			return nil
		default:
			return reader.skip(num, typ)
		}
	})
}

func (k *RuleKey) MarshalWire() []byte {
	return appendString(nil, ruleKeyKeyField, k.Key)
}

func (k *RuleKey) UnmarshalWire(data []byte) error {
	*k = RuleKey{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		if num == ruleKeyKeyField {
			return reader.stringInto(num, typ, &k.Key)
		}

		return reader.skip(num, typ)
	})
}

func (d *RuleDetails) MarshalWire() []byte {
	var data []byte

	data = appendString(data, ruleDetailsKeyField, d.Key)
	data = appendString(data, ruleDetailsNameField, d.Name)
	data = appendString(data, ruleDetailsLanguageField, d.Language)
	data = appendString(data, ruleDetailsSeverityField, d.Severity)
	data = appendString(data, ruleDetailsHTMLDescriptionField, d.HTMLDescription)

	// repeated strings keep empty elements
	for _, tag := range d.Tags {
		data = protowire.AppendTag(data, ruleDetailsTagsField, protowire.BytesType)
		data = protowire.AppendString(data, tag)
	}

	data = appendString(data, ruleDetailsTypeField, d.Type)

	return data
}

func (d *RuleDetails) UnmarshalWire(data []byte) error {
	*d = RuleDetails{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		switch num {
		case ruleDetailsKeyField:
			return reader.stringInto(num, typ, &d.Key)
		case ruleDetailsNameField:
			return reader.stringInto(num, typ, &d.Name)
		case ruleDetailsLanguageField:
			return reader.stringInto(num, typ, &d.Language)
		case ruleDetailsSeverityField:
			return reader.stringInto(num, typ, &d.Severity)
		case ruleDetailsHTMLDescriptionField:
			return reader.stringInto(num, typ, &d.HTMLDescription)
		case ruleDetailsTagsField:
			tag, err := reader.stringValue(num, typ)
			d.Tags = append(d.Tags, tag)
			return err
		case ruleDetailsTypeField:
			return reader.stringInto(num, typ, &d.Type)
		default:
			return reader.skip(num, typ)
		}
	})
}

func (e *LogEvent) MarshalWire() []byte {
	var data []byte

	data = appendString(data, logEventLevelField, e.Level)
	data = appendString(data, logEventLogField, e.Message)
	data = appendBool(data, logEventIsDebugField, e.IsDebug)

	return data
}

func (e *LogEvent) UnmarshalWire(data []byte) error {
	*e = LogEvent{}

	return readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		switch num {
		case logEventLevelField:
			return reader.stringInto(num, typ, &e.Level)
		case logEventLogField:
			return reader.stringInto(num, typ, &e.Message)
		case logEventIsDebugField:
			value, err := reader.varintValue(num, typ)
			e.IsDebug = protowire.DecodeBool(value)
			return err
		default:
			return reader.skip(num, typ)
		}
	})
}

func appendString(data []byte, num protowire.Number, value string) []byte {
	if value == "" {
		return data
	}

	data = protowire.AppendTag(data, num, protowire.BytesType)
	return protowire.AppendString(data, value)
}

func appendInt32(data []byte, num protowire.Number, value int32) []byte {
	if value == 0 {
		return data
	}

	// negative int32 values are sign extended to 64 bits on the wire
	data = protowire.AppendTag(data, num, protowire.VarintType)
	return protowire.AppendVarint(data, uint64(int64(value)))
}

func appendBool(data []byte, num protowire.Number, value bool) []byte {
	if !value {
		return data
	}

	data = protowire.AppendTag(data, num, protowire.VarintType)
	return protowire.AppendVarint(data, protowire.EncodeBool(value))
}

func appendMessage(data []byte, num protowire.Number, message []byte) []byte {
	data = protowire.AppendTag(data, num, protowire.BytesType)
	return protowire.AppendBytes(data, message)
}

func decodeStringMapEntry(data []byte) (string, string, error) {
	var key, value string

	err := readFields(data, func(reader *wireReader, num protowire.Number, typ protowire.Type) error {
		switch num {
		case mapEntryKeyField:
			return reader.stringInto(num, typ, &key)
		case mapEntryValueField:
			return reader.stringInto(num, typ, &value)
		default:
			return reader.skip(num, typ)
		}
	})

	return key, value, err
}

type wireReader struct {
	data []byte
}

// readFields calls handler for every field in data. the handler must consume the field's value
func readFields(data []byte, handler func(reader *wireReader, num protowire.Number, typ protowire.Type) error) error {
	reader := &wireReader{data: data}

	for len(reader.data) > 0 {
		num, typ, tagLength := protowire.ConsumeTag(reader.data)
		if tagLength < 0 {
			return errors.Wrap(protowire.ParseError(tagLength), "Failed to read field tag")
		}
		reader.data = reader.data[tagLength:]

		if err := handler(reader, num, typ); err != nil {
			return err
		}
	}

	return nil
}

func (r *wireReader) bytesValue(num protowire.Number, typ protowire.Type) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, errors.Errorf("Field %d has wire type %d, expected length delimited", num, typ)
	}

	value, length := protowire.ConsumeBytes(r.data)
	if length < 0 {
		return nil, errors.Wrapf(protowire.ParseError(length), "Failed to read field %d", num)
	}
	r.data = r.data[length:]

	return value, nil
}

func (r *wireReader) stringValue(num protowire.Number, typ protowire.Type) (string, error) {
	value, err := r.bytesValue(num, typ)
	return string(value), err
}

func (r *wireReader) stringInto(num protowire.Number, typ protowire.Type, target *string) error {
	value, err := r.stringValue(num, typ)
	if err != nil {
		return err
	}

	*target = value
	return nil
}

func (r *wireReader) varintValue(num protowire.Number, typ protowire.Type) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, errors.Errorf("Field %d has wire type %d, expected varint", num, typ)
	}

	value, length := protowire.ConsumeVarint(r.data)
	if length < 0 {
		return 0, errors.Wrapf(protowire.ParseError(length), "Failed to read field %d", num)
	}
	r.data = r.data[length:]

	return value, nil
}

func (r *wireReader) int32Value(num protowire.Number, typ protowire.Type) (int32, error) {
	value, err := r.varintValue(num, typ)
	return int32(value), err
}

func (r *wireReader) int32Into(num protowire.Number, typ protowire.Type, target *int32) error {
	value, err := r.int32Value(num, typ)
	if err != nil {
		return err
	}

	*target = value
	return nil
}

func (r *wireReader) skip(num protowire.Number, typ protowire.Type) error {
	length := protowire.ConsumeFieldValue(num, typ, r.data)
	if length < 0 {
		return errors.Wrapf(protowire.ParseError(length), "Failed to skip field %d", num)
	}
	r.data = r.data[length:]

	return nil
}
