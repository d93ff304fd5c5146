package textutil

import "strings"

// IsSafeSlug reports whether value can be used verbatim as a story folder
// name and filename stem. Safe slugs contain only ASCII letters, digits,
// hyphens, and underscores.
func IsSafeSlug(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Slugify converts a string to a lowercase filesystem-safe token. Letters are
// lowercased, digits and hyphens/underscores are kept, everything else
// becomes an underscore. Returns "unknown" for empty input.
func Slugify(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
