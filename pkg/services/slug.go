package services

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// emptySlug stands in for headings whose text has no letters or digits.
const emptySlug = "heading"

// Slugify lowercases text, folds diacritics, collapses every run of
// non-alphanumeric characters into a single '-' and trims separators from
// both ends.
func Slugify(text string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// idRegistry hands out unique anchor ids within a single render.
type idRegistry struct {
	used map[string]struct{}
}

func newIDRegistry() *idRegistry {
	return &idRegistry{used: map[string]struct{}{}}
}

// Next returns the slug of text, suffixed with -1, -2, ... when already taken.
func (r *idRegistry) Next(text string) string {
	base := Slugify(text)
	if base == "" {
		base = emptySlug
	}
	id := base
	for i := 1; ; i++ {
		if _, taken := r.used[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(i)
	}
	r.used[id] = struct{}{}
	return id
}
