// Package search filters cards by free-text queries.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/lazycard/internal/domain"
)

// MinTokenLength is the shortest query token, in runes, that takes part in matching.
const MinTokenLength = 2

// Matcher filters cards by a query. Implementations must preserve the input
// order and must not modify the cards.
type Matcher interface {
	Match(query string, cards []*domain.Card) []*domain.Card
}

var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"in", "is", "it", "of", "on", "or", "the", "to", "what", "with",
}

// TokenMatcher keeps cards whose front or back contains every significant
// query token, case-insensitively.
type TokenMatcher struct {
	stopwords map[string]struct{}
}

var _ Matcher = (*TokenMatcher)(nil)

// NewTokenMatcher creates a matcher with the default English stopwords.
func NewTokenMatcher() *TokenMatcher {
	return NewTokenMatcherWithStopwords(defaultStopwords)
}

// NewTokenMatcherWithStopwords creates a matcher that ignores the given words.
func NewTokenMatcherWithStopwords(stopwords []string) *TokenMatcher {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &TokenMatcher{stopwords: set}
}

// Tokens splits a query into the lowercase tokens used for matching.
func (m *TokenMatcher) Tokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength {
			continue
		}
		if _, stop := m.stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Match implements Matcher. A query without significant tokens returns the
// input unchanged.
func (m *TokenMatcher) Match(query string, cards []*domain.Card) []*domain.Card {
	tokens := m.Tokens(query)
	if len(tokens) == 0 {
		return cards
	}

	matched := make([]*domain.Card, 0, len(cards))
	for _, card := range cards {
		text := strings.ToLower(card.Front + "\n" + card.Back)
		if containsAll(text, tokens) {
			matched = append(matched, card)
		}
	}
	return matched
}

func containsAll(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}
