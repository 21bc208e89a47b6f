package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizeText removes every element and keeps the text HTML-escaped, for
// short fields that must never carry markup.
func SanitizeText(input string) string {
	return stripper.Sanitize(input)
}

// StripTags removes every element and returns the plain text.
func StripTags(input string) string {
	return html.UnescapeString(stripper.Sanitize(input))
}
