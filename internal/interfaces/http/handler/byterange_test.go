package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   byteRange
		ok     bool
	}{
		{"closed", "bytes=0-99", 1000, byteRange{0, 99}, true},
		{"open end", "bytes=500-", 1000, byteRange{500, 999}, true},
		{"end clamped", "bytes=900-5000", 1000, byteRange{900, 999}, true},
		{"start clamped", "bytes=2000-", 1000, byteRange{999, 999}, true},
		{"suffix", "bytes=-100", 1000, byteRange{900, 999}, true},
		{"suffix larger than file", "bytes=-5000", 1000, byteRange{0, 999}, true},
		{"single byte", "bytes=0-0", 1, byteRange{0, 0}, true},
		{"absent", "", 1000, byteRange{}, false},
		{"wrong unit", "items=0-9", 1000, byteRange{}, false},
		{"no dash", "bytes=10", 1000, byteRange{}, false},
		{"reversed", "bytes=50-10", 1000, byteRange{}, false},
		{"garbage", "bytes=a-b", 1000, byteRange{}, false},
		{"negative", "bytes=-0", 1000, byteRange{}, false},
		{"multi range", "bytes=0-9,20-29", 1000, byteRange{}, false},
		{"empty file", "bytes=0-9", 0, byteRange{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRange(tt.header, tt.size)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteRange_Headers(t *testing.T) {
	r, ok := parseRange("bytes=0-99", 1000)
	assert.True(t, ok)
	assert.Equal(t, "bytes 0-99/1000", r.ContentRange(1000))
	assert.Equal(t, int64(100), r.Length())
}
