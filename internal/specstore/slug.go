package specstore

import "strings"

// Slugify lowercases name, replaces spaces with hyphens, and strips
// anything that is not a lowercase letter, digit, or hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		default:
			// strip filesystem-unsafe/non-alphanumeric characters
		}
	}
	return strings.TrimRight(b.String(), "-")
}
