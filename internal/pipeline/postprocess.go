package pipeline

import (
	"strings"
	"unicode/utf8"
)

// Response bounding defaults.
const (
	DefaultMaxWords = 600
	LookBack        = 50
	// TruncationMarker is a single whitespace-free word.
	TruncationMarker = "...[truncated]"
)

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// Postprocess bounds raw to maxWords words. Text within the limit is returned
// untouched. Longer text is cut to maxWords words and then back to the last
// sentence end within the final LookBack words; if there is none the
// TruncationMarker is appended. The word count never grows.
func Postprocess(raw string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		return raw, false
	}
	words := strings.Fields(raw)
	if len(words) <= maxWords {
		return raw, false
	}
	kept := words[:maxWords]
	stop := len(kept) - LookBack
	if stop < 0 {
		stop = 0
	}
	for i := len(kept) - 1; i >= stop; i-- {
		// A lone "." does not end a sentence.
		if w := kept[i]; utf8.RuneCountInString(w) > 1 && endsSentence(w) {
			return strings.Join(kept[:i+1], " "), true
		}
	}
	out := strings.Join(kept, " ")
	if endsSentence(out) {
		return out, true
	}
	return out + " " + TruncationMarker, true
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int { return len(strings.Fields(s)) }
