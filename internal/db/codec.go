package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// EncodePhrases serializes phrases for the phrases column.
//
// The stored form is a JSON array of strings with HTML escaping disabled.
// Decoding an encoded value yields the original sequence exactly, so
// strings that are not valid UTF-8 are rejected rather than having their
// bad bytes replaced.
func EncodePhrases(phrases []string) (string, error) {
	if phrases == nil {
		phrases = []string{}
	}
	for i, p := range phrases {
		if !utf8.ValidString(p) {
			return "", fmt.Errorf("%w: phrase %d is not valid UTF-8", ErrEncode, i)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(phrases); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodePhrases parses a value produced by EncodePhrases. The result is
// never nil.
func DecodePhrases(s string) ([]string, error) {
	trimmed := bytes.TrimLeft([]byte(s), " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrDecode)
	}
	// Anything other than a JSON array is a format this version can't read.
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: unsupported format (leading %q)", ErrDecode, trimmed[0])
	}

	var phrases []string
	if err := json.Unmarshal(trimmed, &phrases); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if phrases == nil {
		phrases = []string{}
	}
	return phrases, nil
}
