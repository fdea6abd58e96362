package textutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/namefix/pkg/textutil"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	beyond := []byte(strings.Repeat("a", textutil.BinarySniffLength+100))
	beyond[textutil.BinarySniffLength+50] = 0x00

	atBoundary := make([]byte, textutil.BinarySniffLength)
	atBoundary[textutil.BinarySniffLength-1] = 0x00

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"nil", nil, false},
		{"empty", []byte{}, false},
		{"source", []byte("class C { }\n"), false},
		{"utf8 bom", []byte("\xef\xbb\xbfclass C { }\n"), false},
		{"null byte", []byte("class\x00C"), true},
		{"null at boundary", atBoundary, true},
		{"null beyond boundary", beyond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, textutil.IsBinary(tt.data))
		})
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello\n", 1},
		{"a\nb\nc\n", 3},
		{"a\nb\nc", 3},
		{"\n\n\n", 3},
		{strings.Repeat("line\n", 10000), 10000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, textutil.CountLines(tt.text), "%q", tt.text)
	}
}
