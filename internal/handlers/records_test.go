package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mixins/internal/models"
	"mixins/internal/testutil"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Results []struct {
		ID    uint   `json:"id"`
		Value string `json:"value"`
		URL   string `json:"url"`
		Score int    `json:"score"`
		Votes int    `json:"votes"`
	} `json:"results"`
}

func (r listResponse) values() []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Value
	}
	return out
}

func TestTopRecords(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	a := newArticle(t, svc, "A", nil, true)
	b := newArticle(t, svc, "B", nil, true)
	newArticle(t, svc, "C", nil, true)
	castVotes(t, svc, articleRef(a), 1)
	castVotes(t, svc, articleRef(b), 1, 1, 1, -1, -1)
	app := newApp(t, svc, cfg, nil)

	var resp listResponse
	decode(t, testutil.Do(app, http.MethodGet, "/records/blog__article/top?format=json"), &resp)
	assert.Equal(t, []string{"A", "B"}, resp.values(), "equal scores: fewer votes first")
	assert.Equal(t, 1, resp.Results[1].Score)
	assert.Equal(t, 5, resp.Results[1].Votes)

	resp = listResponse{}
	decode(t, testutil.Do(app, http.MethodGet, "/records/blog__article/top?format=json&n=1"), &resp)
	assert.Equal(t, []string{"A"}, resp.values())

	w := testutil.Do(app, http.MethodGet, "/records/blog__article/top")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/r/blog__article/`)

	w = testutil.Do(app, http.MethodGet, "/records/nope__nope/top")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewestAndVoteless(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	alice := testutil.CreateUser(t, svc.DB, "alice")
	first := newArticle(t, svc, "First", nil, true)
	newArticle(t, svc, "Second", nil, true)
	newArticle(t, svc, "Private", alice, false)
	castVotes(t, svc, articleRef(first), 1)
	app := newApp(t, svc, cfg, nil)

	var resp listResponse
	decode(t, testutil.Do(app, http.MethodGet, "/records/blog__article/newest?format=json"), &resp)
	assert.ElementsMatch(t, []string{"First", "Second"}, resp.values())

	resp = listResponse{}
	decode(t, testutil.Do(app, http.MethodGet, "/records/blog__article/voteless?format=json"), &resp)
	assert.Equal(t, []string{"Second"}, resp.values())

	resp = listResponse{}
	decode(t, testutil.Do(newApp(t, svc, cfg, alice), http.MethodGet, "/records/blog__article/voteless?format=json"), &resp)
	assert.ElementsMatch(t, []string{"Second", "Private"}, resp.values())
}

func TestRecordDetail(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	alice := testutil.CreateUser(t, svc.DB, "alice")
	public := newArticle(t, svc, "Public story", nil, true)
	private := newArticle(t, svc, "Secret story", alice, false)
	_, err := svc.Comments.Add(context.Background(), alice, "127.0.0.1", articleRef(public), "First *comment*")
	require.NoError(t, err)

	anon := newApp(t, svc, cfg, nil)
	w := testutil.Do(anon, http.MethodGet, fmt.Sprintf("/r/blog__article/%d", public.ID))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Public story")
	assert.Contains(t, body, "<em>comment</em>")
	assert.Contains(t, body, "1 comment")

	w = testutil.Do(anon, http.MethodGet, fmt.Sprintf("/r/blog__article/%d", private.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Do(newApp(t, svc, cfg, alice), http.MethodGet, fmt.Sprintf("/r/blog__article/%d", private.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Secret story")

	require.NoError(t, svc.Records.Delete(context.Background(), public, false))
	w = testutil.Do(anon, http.MethodGet, fmt.Sprintf("/r/blog__article/%d", public.ID))
	assert.Equal(t, http.StatusNotFound, w.Code, "soft-deleted records are gone")
}

func TestFeedAndSitemap(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	newArticle(t, svc, "Fresh news", nil, true)
	app := newApp(t, svc, cfg, nil)

	w := testutil.Do(app, http.MethodGet, "/records/blog__article/feed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")
	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "rss", feed.FeedType)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Fresh news", feed.Items[0].Title)
	assert.Equal(t, "http://example.com/articles/fresh-news", feed.Items[0].Link)

	w = testutil.Do(app, http.MethodGet, "/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<loc>http://example.com/articles/fresh-news</loc>")

	w = testutil.Do(app, http.MethodGet, "/robots.txt")
	assert.Contains(t, w.Body.String(), "Sitemap: http://example.com/sitemap.xml")
}

func pngUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for x := 0; x < 20; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(h http.Handler, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestImageUpload(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	alice := testutil.CreateUser(t, svc.DB, "alice")
	bob := testutil.CreateUser(t, svc.DB, "bob")
	a := newArticle(t, svc, "Pictured", alice, true)
	target := fmt.Sprintf("/records/blog__article/%d/image", a.ID)

	body, ct := pngUpload(t, "photo.png")
	w := upload(newApp(t, svc, cfg, bob), target, body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body, ct = pngUpload(t, "notes.txt")
	w = upload(newApp(t, svc, cfg, alice), target, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app := newApp(t, svc, cfg, alice)
	body, ct = pngUpload(t, "photo.png")
	var resp struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	decode(t, upload(app, target, body, ct), &resp)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.URL, "/media/articles/"), resp.URL)

	var stored models.Article
	require.NoError(t, svc.DB.First(&stored, a.ID).Error)
	assert.Equal(t, strings.TrimPrefix(resp.URL, "/media/"), stored.Image.Image)

	// served from the media root, hotlinks get the placeholder
	w = testutil.Do(app, http.MethodGet, resp.URL)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = getWith(app, resp.URL, http.Header{"Sec-Fetch-Site": {"cross-site"}, "Sec-Fetch-Mode": {"no-cors"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = testutil.Do(newApp(t, svc, cfg, nil), http.MethodPost, target)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
