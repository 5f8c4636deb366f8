package paths

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MatchGlob reports whether name matches a shell-style pattern (*, ? and
// [...] classes). Matching ignores case and Unicode normalization form.
// A malformed pattern matches nothing.
func MatchGlob(pattern, name string) bool {
	// path.Match stops * at '/', which is legal in tracker names
	fold := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(norm.NFC.String(s)), "/", "\x00")
	}
	matched, err := path.Match(fold(pattern), fold(name))
	return err == nil && matched
}

// IsGlobPattern checks if a string contains glob characters
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
