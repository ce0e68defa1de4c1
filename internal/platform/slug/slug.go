package slug

import (
	"regexp"
	"strings"
)

var disallowed = regexp.MustCompile(`[^a-z0-9_]+`)

// Make turns a user supplied source name into the key used by the
// settings store.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = disallowed.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "source"
	}
	return s
}
