package retrieval

import (
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	titleMatchBonus    = float32(0.1)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "how": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "were": {}, "with": {},
}

// lexicalScore rates how many query terms a fragment repeats, capped at maxLexicalScore.
// A term found in the page title adds titleMatchBonus.
func lexicalScore(query, text, title string) float32 {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := tokenize(text)
	if len(textTokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(textTokens))
	for _, token := range textTokens {
		freq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += freq[token]
	}

	score := (float32(rawMatches) / (1 + float32(len(textTokens)))) * lexicalLengthScale

	if titleTokens := tokenize(title); len(titleTokens) > 0 {
		titleSet := make(map[string]struct{}, len(titleTokens))
		for _, token := range titleTokens {
			titleSet[token] = struct{}{}
		}
		for _, token := range queryTokens {
			if _, ok := titleSet[token]; ok {
				score += titleMatchBonus
			}
		}
	}

	return min(score, maxLexicalScore)
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func filterStopwords(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
