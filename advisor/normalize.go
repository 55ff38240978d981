package advisor

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeCity canonicalizes a city name for comparison: trimmed, lower
// case, diacritics removed and transliterated to ASCII, inner whitespace
// collapsed to single spaces. The result is idempotent.
func NormalizeCity(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	// Letters without a decomposition (ß, ø, æ, ł) still need transliteration.
	folded = unidecode.Unidecode(folded)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeAll normalizes a slice of city names.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = NormalizeCity(t)
	}
	return out
}

// normalizeHeader turns a column header into a binding key: "% PM" and
// "%_pm" both become "%_pm", "Dirección" becomes "direccion".
func normalizeHeader(header string) string {
	return strings.ReplaceAll(NormalizeCity(cleanCell(header)), " ", "_")
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}
