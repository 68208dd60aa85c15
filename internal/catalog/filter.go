package catalog

import "unicode"

// Minimum share of alphabetic runes for a candidate to be considered a name
// rather than a rendering artifact.
const minAlphaRatio = 0.5

// stopwords are common words that never name a subject on their own.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "he": true,
	"her": true, "him": true, "his": true, "i": true, "if": true, "in": true,
	"is": true, "it": true, "its": true, "me": true, "my": true, "no": true,
	"not": true, "of": true, "on": true, "or": true, "she": true, "so": true,
	"that": true, "the": true, "their": true, "them": true, "they": true,
	"this": true, "to": true, "us": true, "was": true, "we": true, "were": true,
	"who": true, "will": true, "with": true, "you": true, "your": true,
	"lol": true, "omg": true, "wtf": true, "tbh": true, "imo": true,
}

// ValidCandidate reports whether a mention string could plausibly name a
// subject. Emoji-only, punctuation-only, numeric-only, single-character, and
// stopword candidates are dropped before any tracking or queueing.
func ValidCandidate(candidate string) bool {
	name := Normalize(candidate)
	if name == "" {
		return false
	}

	runes := []rune(name)
	if len(runes) < 2 {
		return false
	}

	if stopwords[name] {
		return false
	}

	letters := 0
	nonSpace := 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 || nonSpace == 0 {
		return false
	}

	return float64(letters)/float64(nonSpace) >= minAlphaRatio
}
