package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"mixins/internal/contenttype"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// maxSlugProbes bounds the -2, -3, ... search.
const maxSlugProbes = 1000

var (
	slugStrip     = regexp.MustCompile(`[^\w\s-]`)
	slugHyphenate = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowers value to an ASCII token: accents are decomposed and
// dropped, punctuation removed, runs of spaces and hyphens become one
// hyphen. "Hello World" -> "hello-world".
func Slugify(value string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(value) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	s := slugStrip.ReplaceAllString(b.String(), "")
	s = strings.ToLower(strings.TrimSpace(s))
	return slugHyphenate.ReplaceAllString(s, "-")
}

// UniqueSlug returns base, or base-2, base-3, ... whichever no other row
// of ct uses. exceptID is the record being saved (0 for a new one) so a
// record never collides with itself.
func UniqueSlug(ctx context.Context, conn *gorm.DB, ct *contenttype.ContentType, base string, exceptID uint) (string, error) {
	return uniqueSlugFrom(ctx, conn, ct, base, exceptID, 1)
}

func uniqueSlugFrom(ctx context.Context, conn *gorm.DB, ct *contenttype.ContentType, base string, exceptID uint, suffix int) (string, error) {
	for ; suffix <= maxSlugProbes; suffix++ {
		candidate := base
		if suffix > 1 {
			candidate = base + "-" + strconv.Itoa(suffix)
		}
		// deleted rows still hold their slug in the unique index
		q := AllObjects(ctx, conn, ct).Where("slug = ?", candidate)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		n, err := q.Count()
		if err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", ErrSlugExhausted
}
