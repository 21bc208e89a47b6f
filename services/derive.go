package services

import (
	"strings"
	"unicode/utf8"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/utils"
)

// DeriveExcerpt strips markup from content and keeps the first
// models.ExcerptLimit characters, marking truncation with an ellipsis.
func DeriveExcerpt(content string) string {
	plain := utils.StripTags(content)
	if utf8.RuneCountInString(plain) <= models.ExcerptLimit {
		return plain
	}
	runes := []rune(plain)
	return string(runes[:models.ExcerptLimit]) + models.ExcerptEllipsis
}

// normalizeTags strips markup, trims entries and drops empties, keeping order.
// Filters go through the same path so they match stored tags.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(utils.SanitizeText(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
