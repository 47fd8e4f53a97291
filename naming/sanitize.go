// Package naming derives file names from extracted document information and
// renames documents accordingly.
package naming

import (
	"regexp"
	"strings"
)

var (
	reReserved    = regexp.MustCompile(`[\\/:*?"<>|]`)
	reSpaces      = regexp.MustCompile(`[\s\p{Z}]+`)
	reUnderscores = regexp.MustCompile(`_+`)
)

// Sanitize makes text usable as file or directory name on any platform.
// Reserved characters and whitespace runs become single underscore,
// underscore runs are collapsed and trimmed from both ends. Everything else,
// including dots, is kept as is.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = reReserved.ReplaceAllString(s, "_")
	s = reSpaces.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
