package diagnosis

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Collapse internal control characters except newlines.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// LookupKey converts a disease label or English name into the knowledge store key:
// lower case, underscores replaced by spaces, runs of whitespace collapsed.
func LookupKey(label string) string {
	normed := NormalizeText(label)
	normed = strings.ReplaceAll(normed, "_", " ")
	fields := strings.Fields(normed)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// NormalizePlantPart lower-cases and trims a plant part selector.
func NormalizePlantPart(part string) string {
	return strings.ToLower(NormalizeText(part))
}
