package util

import (
	"strings"
	"unicode"
)

// DefaultSlug is used when a page name produces no usable characters.
const DefaultSlug = "untitled"

// Slugify converts a page name into a lowercase URL segment: runs of
// non-alphanumeric characters collapse to single hyphens, leading and
// trailing hyphens are dropped.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return DefaultSlug
	}
	return slug
}

// SlugWithShortID builds the canonical URL segment for a page without a
// custom link: slugified name, hyphen, short id.
func SlugWithShortID(name, shortID string) string {
	return Slugify(name) + "-" + shortID
}

// ShortIDFromSegment extracts a trailing short id from a slugged URL
// segment. The second return is false when the segment carries none.
func ShortIDFromSegment(segment string) (string, bool) {
	i := strings.LastIndex(segment, "-")
	if i < 0 || i+1 >= len(segment) {
		return "", false
	}
	candidate := segment[i+1:]
	if !IsShortID(candidate) {
		return "", false
	}
	return candidate, true
}
