package naming

import (
	"strings"
	"sync"
	"unicode"

	"github.com/gosimple/slug"
)

// slug keeps its settings in package variables
var slugMu sync.Mutex

// Transliterate converts non-ASCII text of the underscore separated name to
// ASCII preserving capitalization of every part. Dots are kept so standard
// numbers survive.
func Transliterate(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		parts[i] = transliteratePart(part)
	}
	return Sanitize(strings.Join(parts, "_"))
}

func transliteratePart(part string) string {
	if part == "" || isASCII(part) {
		return part
	}

	segments := strings.Split(part, ".")
	for i, seg := range segments {
		segments[i] = transliterateWord(seg)
	}
	return strings.Join(segments, ".")
}

func transliterateWord(word string) string {
	if word == "" || isASCII(word) {
		return word
	}

	runes := []rune(word)
	firstUpper := unicode.IsUpper(runes[0])

	slugMu.Lock()
	slug.Lowercase = false
	trans := slug.Make(word)
	slug.Lowercase = true
	slugMu.Unlock()

	if trans == "" {
		return word
	}
	if firstUpper {
		tr := []rune(trans)
		tr[0] = unicode.ToUpper(tr[0])
		trans = string(tr)
	}
	return trans
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
