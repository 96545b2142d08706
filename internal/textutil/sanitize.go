package textutil

import "strings"

// SanitizeFileName makes a comic title safe to use as a file name. Path
// separators, colons, and asterisks become dashes so adjacent words stay
// readable; the remaining reserved characters are dropped.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*':
			b.WriteByte('-')
		case '?', '"', '<', '>', '|':
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeToken reduces a string to a lowercase shell-friendly token for
// staging directory names. Runs of anything outside [a-z0-9-_] collapse to a
// single underscore. Returns "unknown" when nothing usable remains.
func SanitizeToken(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pendingSep := false
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r == '-', r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r - 'A' + 'a')
		default:
			pendingSep = true
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
