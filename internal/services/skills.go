package services

import (
	"strings"
	"unicode"
)

// NormalizeSkills lowercases and trims a list of raw skill strings,
// dropping empties and duplicates. First-seen order is preserved so the
// output is deterministic for identical input. Pure function, never fails.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	normalized := make([]string, 0, len(skills))

	for _, skill := range skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		normalized = append(normalized, s)
	}

	return normalized
}

// stopWords filters common English words that add noise to token matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "such": true,
	"and/or": true, "etc": true, "experience": true, "years": true,
	"required": true, "skills": true,
}

// TokenizeSkills turns free text into a normalized skill-token list for
// the exact-match fallback path. Tokens keep + # . as word characters so
// "c++", "c#" and "node.js" survive; trailing dots are stripped, tokens
// shorter than three runes and stop words are dropped.
func TokenizeSkills(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 3 && !stopWords[w] {
			tokens = append(tokens, w)
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return NormalizeSkills(tokens)
}

// skillSet builds a lookup set from a normalized token list.
func skillSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
