package vademecumparser

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transform.Transformer is stateful, so each caller takes its own chain
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// Normalize folds s for search comparisons: diacritics stripped, lowercased,
// trimmed, and inner whitespace collapsed to single spaces.
// "  PARACÉTAMOL  500 " becomes "paracetamol 500".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded := s
	if !isASCII(s) {
		t := foldPool.Get().(transform.Transformer)
		t.Reset()
		if out, _, err := transform.String(t, s); err == nil {
			folded = out
		}
		foldPool.Put(t)
	}

	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
