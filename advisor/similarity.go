package advisor

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
)

// Scorer measures how close two normalized strings are, from 0 to 100.
type Scorer func(a, b string) int

// Ratio is the edit-distance similarity: 100 * (1 - distance/longest).
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return toScore(1 - float64(dist)/float64(longest))
}

// PartialRatio scores the shorter string against the best matching
// window of the longer one.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}
	s := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		score := Ratio(s, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their words, so
// word order does not matter.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

// WeightedRatio combines the scorers the way general-purpose fuzzy
// matchers pick their default: plain and token-sorted ratios for strings of
// similar length, partial ratios once one side is much longer.
func WeightedRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	best := float64(Ratio(a, b))
	if lenRatio < 1.5 {
		return int(math.Round(math.Max(best, 0.95*float64(TokenSortRatio(a, b)))))
	}
	scale := 0.9
	if lenRatio > 8 {
		scale = 0.6
	}
	best = math.Max(best, scale*float64(PartialRatio(a, b)))
	best = math.Max(best, 0.95*scale*float64(PartialRatio(sortTokens(a), sortTokens(b))))
	return int(math.Round(best))
}

// ScorerByName maps a configuration value to a Scorer.
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "weighted":
		return WeightedRatio, nil
	case "ratio":
		return Ratio, nil
	case "partial":
		return PartialRatio, nil
	case "token_sort":
		return TokenSortRatio, nil
	default:
		return nil, eris.Errorf("unknown scorer %q", name)
	}
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func toScore(f float64) int {
	score := int(math.Round(100 * f))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
