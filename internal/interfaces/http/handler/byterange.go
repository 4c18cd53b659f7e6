package handler

import (
	"fmt"
	"strconv"
	"strings"
)

// byteRange is an inclusive span of a file
type byteRange struct {
	Start int64
	End   int64
}

// Length is the number of bytes in the span
func (r byteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value
func (r byteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// parseRange reads a single "bytes=start-end" range, clamped to [0,size-1].
// "bytes=start-" reads to the end and "bytes=-n" reads the last n bytes.
// ok is false when the header is absent, malformed, or lists more than one range;
// the caller then serves the whole file.
func parseRange(header string, size int64) (byteRange, bool) {
	if size <= 0 {
		return byteRange{}, false
	}
	spec, found := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !found || strings.Contains(spec, ",") {
		return byteRange{}, false
	}
	startStr, endStr, found := strings.Cut(strings.TrimSpace(spec), "-")
	if !found {
		return byteRange{}, false
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)
	last := size - 1

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false
		}
		if n > size {
			n = size
		}
		return byteRange{Start: size - n, End: last}, true
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, false
	}
	end := last
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return byteRange{}, false
		}
	}
	start = min(start, last)
	end = min(end, last)
	return byteRange{Start: start, End: end}, true
}
