// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"
)

// Normalize flattens document text into a single line for pattern
// scanning: newlines become spaces and every run of whitespace collapses
// to one space. Case and all other characters are left untouched, and a
// leading or trailing space survives as a single space. Normalize is
// idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")

	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SplitSentences cuts normalized text after '.', '!' or '?' when the
// punctuation is followed by whitespace; the whitespace itself is dropped.
// This is a punctuation heuristic, so abbreviations and decimals such as
// "approx. 5" split early. Empty input yields a single empty sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		start = j
		i = j - 1
	}
	return append(sentences, text[start:])
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// FindContext returns the first sentence that mentions the biomarker name
// (case-insensitive) or contains the matched value verbatim, trimmed of
// surrounding whitespace. It returns "" when no sentence qualifies, which
// can happen after a successful match because matching runs over the whole
// text while the splitter may have cut the match in two.
func FindContext(sentences []string, name, value string) string {
	lname := strings.ToLower(name)
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), lname) || strings.Contains(s, value) {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
