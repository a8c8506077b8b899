package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// ClosestName returns the candidate most similar to name under
// Jaro-Winkler after normalization, along with its similarity in [0, 1].
// An exact normalized match always wins. It returns "", 0 when there are
// no candidates.
func ClosestName(name string, candidates []string) (string, float64) {
	target := NormalizeName(name)

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		normalized := NormalizeName(c)
		if normalized == target {
			return c, 1
		}
		score := matchr.JaroWinkler(target, normalized, false)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}
