package condition

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Locale uint8

const (
	LocaleDefault Locale = iota
	LocaleFrench
)

func (l Locale) String() string {
	if l == LocaleFrench {
		return "fr"
	}
	return "default"
}

// ParseLocale accepts the locale names used in profile files.
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "en":
		return LocaleDefault, nil
	case "fr", "lang-fr":
		return LocaleFrench, nil
	default:
		return LocaleDefault, fmt.Errorf("unknown locale: %s", s)
	}
}

var defaultTokens = map[string]Condition{
	"NEW":            New,
	"USED_LIKE_NEW":  LikeNew,
	"USED_VERY_GOOD": VeryGood,
	"USED_GOOD":      Good,
	"USED_CORRECT":   Correct,
	"USED_BAD":       Bad,
	"New":            New,
	"LikeNew":        LikeNew,
	"VeryGood":       VeryGood,
	"Good":           Good,
	"Correct":        Correct,
	"Bad":            Bad,
	"Like New":       LikeNew,
	"Very Good":      VeryGood,
}

var frenchTokens = map[string]Condition{
	"NEUF":          New,
	"COMME NEUF":    LikeNew,
	"TRÈS BON ÉTAT": VeryGood,
	"BON ÉTAT":      Good,
	"ÉTAT CORRECT":  Correct,
	"MAUVAIS ÉTAT":  Bad,
	"Neuf":          New,
	"Comme neuf":    LikeNew,
	"Très bon état": VeryGood,
	"Bon état":      Good,
	"État correct":  Correct,
	"Mauvais état":  Bad,
}

var marketplaceTokens = map[string]Condition{
	"CN":  LikeNew,
	"TBE": VeryGood,
	"BE":  Good,
	"EC":  Correct,
}

var (
	defaultDisplay = [count]string{"New", "Like New", "Very Good", "Good", "Correct", "Bad"}
	frenchDisplay  = [count]string{"NEUF", "COMME NEUF", "TRÈS BON ÉTAT", "BON ÉTAT", "ÉTAT CORRECT", "MAUVAIS ÉTAT"}
)

// Vocabulary selects the wire tokens for one deployment. Marketplace adds the
// short marketplace codes to the accepted set.
type Vocabulary struct {
	Locale      Locale
	Marketplace bool
}

func (v Vocabulary) table() map[string]Condition {
	if v.Locale == LocaleFrench {
		return frenchTokens
	}
	return defaultTokens
}

// Parse maps a wire token to a condition. Matching is exact and
// case-sensitive after NFC composition; unknown tokens yield New.
func (v Vocabulary) Parse(token string) Condition {
	if c, ok := v.Lookup(token); ok {
		return c
	}
	return New
}

// Lookup is Parse without the fallback.
func (v Vocabulary) Lookup(token string) (Condition, bool) {
	token = norm.NFC.String(token)
	if c, ok := v.table()[token]; ok {
		return c, true
	}
	if v.Marketplace {
		c, ok := marketplaceTokens[token]
		return c, ok
	}
	return New, false
}

func (v Vocabulary) Display(c Condition) string {
	if !c.Valid() {
		c = New
	}
	if v.Locale == LocaleFrench {
		return frenchDisplay[c]
	}
	return defaultDisplay[c]
}

// Tokens lists the accepted tokens, sorted.
func (v Vocabulary) Tokens() []string {
	out := make([]string, 0, len(v.table())+len(marketplaceTokens))
	for tok := range v.table() {
		out = append(out, tok)
	}
	if v.Marketplace {
		for tok := range marketplaceTokens {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
