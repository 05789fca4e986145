// Package cache stores prior question/answer pairs per owner and serves
// repeat questions without touching the external LLM service.
package cache

import "strings"

// Common filler words removed before comparing questions. Keeping this list
// small and fixed makes the score deterministic and cheap.
var stopwords = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "a": {}, "an": {}, "my": {}, "i": {},
	"me": {}, "can": {}, "could": {}, "would": {}, "should": {}, "how": {},
	"when": {}, "where": {}, "why": {}, "much": {}, "many": {}, "do": {},
	"did": {}, "have": {}, "has": {}, "on": {}, "in": {}, "of": {}, "to": {},
}

// tokenize lowercases, splits on whitespace and optionally drops stopwords.
func tokenize(question string, keepStopwords bool) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,!?;:\"'")
		if w == "" {
			continue
		}
		if _, stop := stopwords[w]; stop && !keepStopwords {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// Similarity returns the token-set Jaccard overlap of two questions in
// [0,1]: |shared| / |union| over stopword-free, case-insensitive word sets.
// When either question is stopwords all the way through, the comparison
// falls back to the raw token sets, so an identical question always scores
// 1.0 regardless of its wording.
func Similarity(q1, q2 string) float64 {
	w1 := tokenize(q1, false)
	w2 := tokenize(q2, false)

	if len(w1) == 0 || len(w2) == 0 {
		w1 = tokenize(q1, true)
		w2 = tokenize(q2, true)
	}
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}

	shared := 0
	for w := range w1 {
		if _, ok := w2[w]; ok {
			shared++
		}
	}

	union := len(w1) + len(w2) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
