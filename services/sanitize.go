package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds how many layers of entity encoding are peeled off
const maxSanitizePasses = 8

// SanitizeText strips any markup from user-supplied free text and returns plain text.
// Entity-encoded markup is decoded and stripped again until the text is stable.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	out := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing: keep the escaped form
	return strings.TrimSpace(strictPolicy.Sanitize(out))
}
