package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/tnpportal/portal/models"
)

func TestDeriveExcerptShortContent(t *testing.T) {
	got := DeriveExcerpt("<p>Campus drive on <strong>Monday</strong> &amp; Tuesday</p>")
	assert.Equal(t, "Campus drive on Monday & Tuesday", got)
}

func TestDeriveExcerptTruncates(t *testing.T) {
	content := "<p>" + strings.Repeat("a", 500) + "</p>"
	got := DeriveExcerpt(content)

	assert.True(t, strings.HasSuffix(got, models.ExcerptEllipsis))
	assert.Equal(t, models.ExcerptLimit+len(models.ExcerptEllipsis), utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("a", models.ExcerptLimit), strings.TrimSuffix(got, models.ExcerptEllipsis))
}

func TestDeriveExcerptExactLimitHasNoEllipsis(t *testing.T) {
	content := strings.Repeat("b", models.ExcerptLimit)
	assert.Equal(t, content, DeriveExcerpt(content))
}

func TestDeriveExcerptCountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("é", 350)
	got := DeriveExcerpt(content)
	assert.Equal(t, strings.Repeat("é", models.ExcerptLimit)+models.ExcerptEllipsis, got)
}

func TestDeriveExcerptIsIdempotent(t *testing.T) {
	content := "<div>" + strings.Repeat("word ", 120) + "</div>"
	assert.Equal(t, DeriveExcerpt(content), DeriveExcerpt(content))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a"}, normalizeTags([]string{" a ", "", "b", "\t", "a"}))
	assert.Equal(t, []string{}, normalizeTags(nil))
}
