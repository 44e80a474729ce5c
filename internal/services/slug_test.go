package services

import (
	"context"
	"testing"

	"mixins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  Crème Brûlée!  ":  "creme-brulee",
		"a -- b":             "a-b",
		"snake_case stays":   "snake_case-stays",
		"What's up, doc?":    "whats-up-doc",
		"日本語":                "",
		"Ünïcödé   spaces  ": "unicode-spaces",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestUniqueSlugAppendsSuffix(t *testing.T) {
	s := newTestServices(t)
	first := newArticle(t, s, "Hello World", nil, true)
	second := newArticle(t, s, "Hello World", nil, true)
	third := newArticle(t, s, "Hello, World!", nil, true)

	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, "hello-world-2", second.Slug)
	assert.Equal(t, "hello-world-3", third.Slug)

	// re-saving keeps the record's own slug
	first.Body = "edited"
	require.NoError(t, s.Records.Save(context.Background(), first))
	assert.Equal(t, "hello-world", first.Slug)
}

func TestUniqueSlugSeesDeletedRows(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := newArticle(t, s, "Hello World", nil, true)
	require.NoError(t, s.Records.Delete(ctx, a, false))

	b := newArticle(t, s, "Hello World", nil, true)
	assert.Equal(t, "hello-world-2", b.Slug)
}

func TestSaveRetriesSlugOnConflict(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	// another writer takes the slug after the probe, before the insert
	raced := false
	err := s.DB.Callback().Create().Before("gorm:create").Register("test:race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "articles" {
			return
		}
		raced = true
		sneaky := &models.Article{Title: "Sneaky", UniqueSlug: models.UniqueSlug{Slug: "race"}}
		require.NoError(t, s.DB.Create(sneaky).Error)
	})
	require.NoError(t, err)

	a := &models.Article{Title: "Race"}
	require.NoError(t, s.Records.Save(ctx, a))
	assert.True(t, raced)
	assert.Equal(t, "race-2", a.Slug)
	assert.NotZero(t, a.ID)
}

func TestNewOnlySlug(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	p := &models.Place{Name: "Blue Cafe"}
	require.NoError(t, s.Records.Save(ctx, p))
	assert.Equal(t, "blue-cafe", p.Slug.Slug)

	p.Name = "Red Cafe"
	require.NoError(t, s.Records.Save(ctx, p))
	assert.Equal(t, "blue-cafe", p.Slug.Slug)

	// not unique: the same name gives the same slug
	q := &models.Place{Name: "Blue Cafe"}
	require.NoError(t, s.Records.Save(ctx, q))
	assert.Equal(t, "blue-cafe", q.Slug.Slug)
}

func TestSaveSlugFallsBackToModelName(t *testing.T) {
	s := newTestServices(t)
	first := newArticle(t, s, "!!!", nil, true)
	second := newArticle(t, s, "?!", nil, true)
	assert.Equal(t, "article", first.Slug)
	assert.Equal(t, "article-2", second.Slug)

	p := &models.Place{Name: "***"}
	require.NoError(t, s.Records.Save(context.Background(), p))
	assert.Equal(t, "place", p.Slug.Slug)
}
