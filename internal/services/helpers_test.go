package services

import (
	"context"
	"testing"
	"time"

	"mixins/internal/config"
	"mixins/internal/contenttype"
	"mixins/internal/models"
	"mixins/internal/testutil"

	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	types := contenttype.NewRegistry()
	contenttype.RegisterBuiltins(types, "example.com")

	s, err := New(conn, types, &config.Config{
		MediaRoot:        t.TempDir(),
		MediaURL:         "/media",
		RankingCacheSize: 16,
		RankingCacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	return s
}

func lookup(t *testing.T, s *Services, key string) *contenttype.ContentType {
	t.Helper()
	ct, err := s.Types.Lookup(key)
	require.NoError(t, err)
	return ct
}

func newArticle(t *testing.T, s *Services, title string, owner *models.User, global bool) *models.Article {
	t.Helper()
	a := &models.Article{Title: title}
	a.IsGlobal = global
	if owner != nil {
		id := owner.ID
		a.UserID = &id
	}
	require.NoError(t, s.Records.Save(context.Background(), a))
	return a
}

func articleRef(a *models.Article) models.TargetRef {
	return models.TargetRef{ContentType: "blog__article", ObjectID: a.ID}
}

func titles(recs []models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.(*models.Article).Title
	}
	return out
}

func rankedTitles(recs []RankedRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Record.(*models.Article).Title
	}
	return out
}
