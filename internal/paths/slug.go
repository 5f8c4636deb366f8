// Package paths derives file names from tracker names and matches names
// against shell-style patterns.
package paths

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	maxSlugLen  = 48

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slug turns a name into a lower-case file name fragment. Accents are
// dropped, every other run of characters outside [a-z0-9] becomes a single
// hyphen, and the result is cut to maxSlugLen bytes. A name with nothing
// usable yields fallback.
func Slug(name, fallback string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}

	s := b.String()
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// ValidateSlug checks if a string is a valid slug without normalization
func ValidateSlug(s string) error {
	if s == "" {
		return fmt.Errorf("slug cannot be empty")
	}

	if len(s) > maxSlugLen {
		return fmt.Errorf("slug exceeds maximum length of %d bytes", maxSlugLen)
	}

	if !slugPattern.MatchString(s) {
		return fmt.Errorf("invalid slug format: must be lowercase, start with alphanumeric, and contain only [a-z0-9-]")
	}

	return nil
}
