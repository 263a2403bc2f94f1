package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// asciiFold transliterates common accented characters to ASCII so generated
// slugs stay URL-safe.
var asciiFold = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"á", "a", "à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "î", "i", "ï", "i",
	"ó", "o", "ô", "o",
	"ú", "u", "û", "u",
	"ñ", "n",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Summer Dresses" → "summer-dresses"
//   - "Kadın Giyim" → "kadin-giyim"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = asciiFold.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is a well-formed slug: non-empty, lowercase
// alphanumerics separated by single hyphens.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	return s == Generate(s)
}
