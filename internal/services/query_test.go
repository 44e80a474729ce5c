package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"mixins/internal/models"
	"mixins/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalsVisibility(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, s.DB, "u1")
	u2 := testutil.CreateUser(t, s.DB, "u2")
	newArticle(t, s, "public", u1, true)
	newArticle(t, s, "mine", u1, false)
	newArticle(t, s, "theirs", u2, false)
	ct := lookup(t, s, "blog__article")

	recs, err := Objects(ctx, s.DB, ct).Globals(nil).Order("id").Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, titles(recs))

	recs, err = Objects(ctx, s.DB, ct).Globals(u1).Order("id").Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "mine"}, titles(recs))

	recs, err = Objects(ctx, s.DB, ct).Globals(u2).Order("id").Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "theirs"}, titles(recs))

	inactive := *u1
	inactive.IsActive = false
	recs, err = Objects(ctx, s.DB, ct).Globals(&inactive).Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, titles(recs))
}

func TestQueriesDoNotLeakConditions(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	newArticle(t, s, "one", nil, true)
	newArticle(t, s, "two", nil, false)
	ct := lookup(t, s, "blog__article")

	base := Objects(ctx, s.DB, ct)
	globals := base.Globals(nil)
	_, err := globals.Find()
	require.NoError(t, err)

	n, err := base.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestObjectsHidesSoftDeleted(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := newArticle(t, s, "gone", nil, true)
	newArticle(t, s, "kept", nil, true)
	require.NoError(t, s.Records.Delete(ctx, a, false))
	ct := lookup(t, s, "blog__article")

	recs, err := Objects(ctx, s.DB, ct).Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, titles(recs))

	recs, err = AllObjects(ctx, s.DB, ct).Order("id").Find()
	require.NoError(t, err)
	assert.Equal(t, []string{"gone", "kept"}, titles(recs))
}

func TestByVotesOrdering(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	users := make([]*models.User, 5)
	for i := range users {
		users[i] = testutil.CreateUser(t, s.DB, fmt.Sprintf("voter%d", i))
	}
	a := newArticle(t, s, "A", nil, true)
	b := newArticle(t, s, "B", nil, true)
	c := newArticle(t, s, "C", nil, true)
	newArticle(t, s, "D", nil, true)

	cast := func(art *models.Article, values ...int) {
		for i, v := range values {
			require.NoError(t, s.Votes.Cast(ctx, users[i].ID, articleRef(art), v))
		}
	}
	cast(a, 1)
	cast(b, 1, 1, 1, -1, -1)
	cast(c, 1, 1)

	ct := lookup(t, s, "blog__article")
	ranked, err := Objects(ctx, s.DB, ct).ByVotes()
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, rankedTitles(ranked))
	assert.Equal(t, 2, ranked[0].Score)
	assert.Equal(t, 2, ranked[0].Votes)
	assert.Equal(t, 1, ranked[1].Score)
	assert.Equal(t, 1, ranked[1].Votes)
	assert.Equal(t, 1, ranked[2].Score)
	assert.Equal(t, 5, ranked[2].Votes)

	top, err := Objects(ctx, s.DB, ct).TopN(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, rankedTitles(top))

	top, err = Objects(ctx, s.DB, ct).TopTen()
	require.NoError(t, err)
	assert.Len(t, top, 3)

	none, err := Objects(ctx, s.DB, ct).TopN(0)
	require.NoError(t, err)
	assert.Empty(t, none)

	// ranking respects the query's filters
	ranked, err = Objects(ctx, s.DB, ct).Where("title <> ?", "C").ByVotes()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rankedTitles(ranked))
}

func TestVoteless(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "alice")
	a := newArticle(t, s, "voted", nil, true)
	newArticle(t, s, "quiet", nil, true)
	require.NoError(t, s.Votes.Cast(ctx, u.ID, articleRef(a), 1))

	ct := lookup(t, s, "blog__article")
	recs, err := Objects(ctx, s.DB, ct).Voteless()
	require.NoError(t, err)
	assert.Equal(t, []string{"quiet"}, titles(recs))
}

func TestNewest(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		a := &models.Article{Title: fmt.Sprintf("a%02d", i), UniqueSlug: models.UniqueSlug{Slug: fmt.Sprintf("a%02d", i)}}
		a.IsGlobal = true
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.DB.Create(a).Error)
	}
	ct := lookup(t, s, "blog__article")

	recs, err := Objects(ctx, s.DB, ct).Newest(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a11", "a10", "a09"}, titles(recs))

	recs, err = Objects(ctx, s.DB, ct).Newest(0)
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}

func TestMissingCapabilitiesDegrade(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	for _, name := range []string{"one", "two"} {
		site := &models.Site{Name: name}
		site.Subdomain = name
		require.NoError(t, s.DB.Create(site).Error)
	}
	ct := lookup(t, s, "sites__site")

	ranked, err := Objects(ctx, s.DB, ct).Globals(nil).ByVotes()
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
	assert.Zero(t, ranked[0].Score)

	voteless, err := Objects(ctx, s.DB, ct).Voteless()
	require.NoError(t, err)
	assert.Empty(t, voteless)

	tags := lookup(t, s, "mixins__tag")
	require.NoError(t, s.DB.Create(&models.Tag{Tag: "go"}).Error)
	recs, err := Objects(ctx, s.DB, tags).Newest(5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestVoteAggregateSQL(t *testing.T) {
	sql, args := voteAggregateSQL("blog__article", []uint{1, 2}, 5)
	assert.True(t, strings.HasPrefix(sql, "SELECT object_id, SUM(value) AS vote_score, COUNT(value) AS total_votes FROM user_votes"))
	assert.Contains(t, sql, "GROUP BY object_id")
	assert.Contains(t, sql, "ORDER BY vote_score DESC, total_votes ASC, object_id ASC")
	assert.Contains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "$1")
	assert.Equal(t, "blog__article", args[0])
}
