package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds an identifier for fuzzy matching: CamelCase and
// separators are split into tokens, which are lower-cased and joined.
func NormalizeIdent(s string) string {
	return strings.Join(TokenizeIdent(s), "")
}

// TokenizeIdent splits an identifier into lower-case tokens.
//
//	"OrderID"         -> ["order", "id"]
//	"XMLParser"       -> ["xml", "parser"]
//	"shipping_city"   -> ["shipping", "city"]
func TokenizeIdent(s string) []string {
	tokens := splitCamel(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

func splitCamel(s string) []string {
	var (
		tokens []string
		start  = -1
		runes  = []rune(s)
	)

	flush := func(end int) {
		if start >= 0 && end > start {
			tokens = append(tokens, string(runes[start:end]))
		}

		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			flush(i)
			continue
		}

		if start < 0 {
			start = i
			continue
		}

		prev := runes[i-1]
		lowerToUpper := unicode.IsUpper(r) && !unicode.IsUpper(prev)
		acronymEnd := unicode.IsUpper(r) && unicode.IsUpper(prev) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1])

		if lowerToUpper || acronymEnd {
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return tokens
}
