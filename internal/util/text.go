package util

import (
	"strings"
	"unicode"
)

// NormalizeCode folds a barcode to upper case without spaces or
// punctuation other than - _ / .
func NormalizeCode(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	out := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '/' || r == '.' {
			out.WriteRune(r)
		}
	}
	return out.String()
}
