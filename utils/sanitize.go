package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizePlain strips all markup. Used for titles and tags, which are never
// rendered as HTML. Bin content is exempt from sanitization entirely: pastes
// are opaque text and must survive storage byte for byte.
func SanitizePlain(input string) string {
	return plainPolicy.Sanitize(input)
}
