package dataset

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canton qualifiers and administrative suffixes that differ between the
// FSO income dataset and the municipality register, e.g. "Buchs (AG)" vs
// "Buchs AG" vs "Buchs".
var nameSuffixes = regexp.MustCompile(
	`(?i)\s*(\((AG|AI|AR|BE|BL|BS|FR|GE|GL|GR|JU|LU|NE|NW|OW|SG|SH|SO|SZ|TG|TI|UR|VD|VS|ZG|ZH)\)|` +
		`\s(AG|AI|AR|BE|BL|BS|FR|GE|GL|GR|JU|LU|NE|NW|OW|SG|SH|SO|SZ|TG|TI|UR|VD|VS|ZG|ZH))\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a municipality name for matching: lowercase,
// diacritics folded, canton qualifiers stripped, whitespace collapsed.
func NormalizeName(name string) string {
	n := strings.TrimSpace(name)
	n = nameSuffixes.ReplaceAllString(n, "")
	if folded, _, err := transform.String(foldDiacritics, n); err == nil {
		n = folded
	}
	n = strings.ToLower(n)
	n = strings.ReplaceAll(n, "-", " ")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// trigrams returns the trigram set of a string using pg_trgm conventions:
// each word is padded with two leading and one trailing space.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

// Similarity returns the trigram similarity of two normalized names in
// [0,1], matching the semantics of the pg_trgm similarity() function.
func Similarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared int
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// BestMatch finds the candidate most similar to name. Returns the index of
// the best candidate and its similarity score, or (-1, 0) when candidates
// is empty. Names are normalized before comparison; an exact normalized
// match short-circuits with score 1.
func BestMatch(name string, candidates []string) (int, float64) {
	target := NormalizeName(name)
	bestIdx, bestScore := -1, 0.0

	for i, c := range candidates {
		cn := NormalizeName(c)
		if cn == target {
			return i, 1
		}
		if score := Similarity(target, cn); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}
