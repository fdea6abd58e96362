// Package textutil provides byte-level checks on source files before they
// are handed to a parser.
package textutil

import (
	"bytes"
	"strings"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in text.
// A non-empty text without a trailing newline counts the last partial line.
func CountLines(text string) int {
	if text == "" {
		return 0
	}

	lines := strings.Count(text, "\n")

	if text[len(text)-1] != '\n' {
		lines++
	}

	return lines
}
