package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// RemoveAccents turns "Pagué Menos" into "Pague Menos".
func RemoveAccents(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lowercases, strips accents and removes all whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = RemoveAccents(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// CollapseWhitespace trims the string and replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// BestMatch returns the candidate most similar to `name`, comparing normalized names.
// An exact normalized match always wins, otherwise the Jaro-Winkler similarity of the
// best candidate must reach `threshold`.
func BestMatch(name string, candidates []string, threshold float64) (string, bool) {
	target := NormalizeName(name)
	if target == "" {
		return "", false
	}

	var best string
	var bestScore float64
	for _, c := range candidates {
		normalized := NormalizeName(c)
		if normalized == target {
			return c, true
		}
		score := matchr.JaroWinkler(target, normalized, false)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}

	if bestScore < threshold {
		return "", false
	}
	return best, true
}
