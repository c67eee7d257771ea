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
	"strings"
	"unicode/utf8"

	"github.com/nuclio/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// CanonicalCharset returns the preferred MIME name of the given charset (DefaultCharset if empty),
// falling back to its IANA name. IANA names/aliases and WHATWG labels (e.g. "utf8") are accepted,
// as long as the encoding they resolve to is registered with IANA
func CanonicalCharset(charset string) (string, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return DefaultCharset, nil
	}

	encodingInstance, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}

	// registered but unsupported by x/text, the daemon may still know it
	if encodingInstance == nil {
		return charset, nil
	}

	if name, err := ianaindex.MIME.Name(encodingInstance); err == nil && name != "" {
		return name, nil
	}

	if name, err := ianaindex.IANA.Name(encodingInstance); err == nil && name != "" {
		return name, nil
	}

	return "", errors.Errorf("Charset %q has no IANA registered name", charset)
}

// toUTF8 returns content as UTF-8. content that is not valid UTF-8 is decoded from charset, which
// must then name a known encoding other than UTF-8
func toUTF8(content string, charset string) (string, error) {
	if utf8.ValidString(content) {
		return content, nil
	}

	encodingInstance, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}

	if encodingInstance == nil || isUTF8(encodingInstance) {
		return "", errors.Errorf("Content is not valid %s", charset)
	}

	decoded, err := encodingInstance.NewDecoder().String(content)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode content from %s", charset)
	}

	if !utf8.ValidString(decoded) {
		return "", errors.Errorf("Content is not valid %s", charset)
	}

	return decoded, nil
}

func isUTF8(encodingInstance encoding.Encoding) bool {
	name, err := ianaindex.IANA.Name(encodingInstance)
	return err == nil && name == DefaultCharset
}

func lookupEncoding(charset string) (encoding.Encoding, error) {
	encodingInstance, ianaErr := ianaindex.IANA.Encoding(charset)
	if ianaErr == nil {
		return encodingInstance, nil
	}

	encodingInstance, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.Errorf("Unknown charset %q", charset)
	}

	return encodingInstance, nil
}

// validateUTF8 checks the values sent as protobuf strings
func validateUTF8(values map[string]string) error {
	for name, value := range values {
		if !utf8.ValidString(value) {
			return errors.Errorf("%s is not valid UTF-8: %q", name, value)
		}
	}

	return nil
}
