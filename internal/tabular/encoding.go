package tabular

// encoding.go normalizes delimited text to UTF-8 before CSV parsing.
//
// Supplier exports come from many tools:
//
//   - UTF-8 with or without a BOM (0xEF 0xBB 0xBF)
//   - UTF-16 with a BOM ("Unicode text" exports from Excel)
//   - Windows-1252 (legacy Excel "CSV" on Spanish Windows)
//
// Input that is not valid UTF-8 and carries no UTF-16 BOM is decoded as
// Windows-1252, which maps every byte, so decoding never fails on content.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// toUTF8 returns data as UTF-8 without a byte order mark.
func toUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return sanitizeUTF8(data[len(utf8BOM):]), nil

	case bytes.HasPrefix(data, utf16LEBOM), bytes.HasPrefix(data, utf16BEBOM):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return nil, fmt.Errorf("utf-16 decode: %w", err)
		}
		return bytes.TrimPrefix(out, utf8BOM), nil

	case utf8.Valid(data):
		return data, nil
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("windows-1252 decode: %w", err)
	}
	return out, nil
}

// sanitizeUTF8 replaces invalid sequences with U+FFFD. A BOM promises UTF-8,
// so stray bytes after one are treated as corruption rather than a
// different code page.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
}
