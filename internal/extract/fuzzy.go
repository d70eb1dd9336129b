package extract

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultFuzzyThreshold is the similarity ratio a token must reach against a
// synonym before the fuzzy fallback accepts it.
const DefaultFuzzyThreshold = 0.8

// fuzzyMatcher accepts text tokens that are close to one of a biomarker's
// synonyms. Similarity is difflib's SequenceMatcher ratio computed over
// characters, 2*M/T where M is the number of matched characters and T the
// combined length. Comparison is case-sensitive.
//
// The first token over the threshold wins. Short synonyms such as "ER" or
// "PR" make this greedy policy prone to false positives. Fuzzy hits carry
// a lower confidence than pattern hits.
type fuzzyMatcher struct {
	synonyms  [][]string
	threshold float64
}

func newFuzzyMatcher(synonyms []string, threshold float64) fuzzyMatcher {
	f := fuzzyMatcher{threshold: threshold}
	for _, s := range synonyms {
		f.synonyms = append(f.synonyms, chars(s))
	}
	return f
}

// enabled reports whether the biomarker has any synonyms to match against.
func (f fuzzyMatcher) enabled() bool {
	return len(f.synonyms) > 0
}

// match scans words in order and returns the first one whose similarity to
// any synonym meets the threshold. The word is returned as it appears in
// the text, not the synonym it resembled.
func (f fuzzyMatcher) match(words []string) (string, bool) {
	if !f.enabled() {
		return "", false
	}
	for _, w := range words {
		if f.accepts(w) {
			return w, true
		}
	}
	return "", false
}

// accepts checks the cheap upper bounds before the full ratio, the same
// order difflib.get_close_matches uses.
func (f fuzzyMatcher) accepts(word string) bool {
	wc := chars(word)
	m := difflib.NewMatcher(f.synonyms[0], wc)
	for i, syn := range f.synonyms {
		if i > 0 {
			m.SetSeq1(syn)
		}
		if m.RealQuickRatio() >= f.threshold &&
			m.QuickRatio() >= f.threshold &&
			m.Ratio() >= f.threshold {
			return true
		}
	}
	return false
}

// chars splits s into its UTF-8 characters.
func chars(s string) []string {
	return strings.Split(s, "")
}
