package pipeline

import (
	"fmt"
	"unicode/utf8"
)

// Context compression defaults. Lengths are in runes.
const (
	DefaultThreshold = 2000
	DefaultHead      = 1200
	DefaultTail      = 800
	OmissionMarker   = "\n...[content omitted]...\n"
)

// Compressor keeps a fixed head and tail of an oversized context and drops
// the middle. It never rewrites the text it keeps.
type Compressor struct {
	Threshold int
	Head      int
	Tail      int
	Marker    string
}

// DefaultCompressor returns the standard 2000/1200/800 compressor.
func DefaultCompressor() Compressor {
	return Compressor{Threshold: DefaultThreshold, Head: DefaultHead, Tail: DefaultTail, Marker: OmissionMarker}
}

// NewCompressor validates the sizes.
func NewCompressor(threshold, head, tail int) (Compressor, error) {
	if threshold <= 0 || head < 0 || tail < 0 {
		return Compressor{}, fmt.Errorf("compressor: invalid sizes threshold=%d head=%d tail=%d", threshold, head, tail)
	}
	if head+tail > threshold {
		return Compressor{}, fmt.Errorf("compressor: head+tail (%d) exceeds threshold (%d)", head+tail, threshold)
	}
	return Compressor{Threshold: threshold, Head: head, Tail: tail, Marker: OmissionMarker}, nil
}

// Compress returns s unchanged when it is at most Threshold runes long, and
// head + marker + tail otherwise. The second result reports whether anything
// was dropped. Compress(Compress(s)) == Compress(s).
func (c Compressor) Compress(s string) (string, bool) {
	if utf8.RuneCountInString(s) <= c.Threshold {
		return s, false
	}
	r := []rune(s)
	return string(r[:c.Head]) + c.Marker + string(r[len(r)-c.Tail:]), true
}
