package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mixins/internal/config"
	"mixins/internal/contenttype"
	"mixins/internal/handlers"
	"mixins/internal/models"
	"mixins/internal/router"
	"mixins/internal/services"
	"mixins/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const templatesDir = "../../web/templates"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		SiteDomain:       "example.com",
		SiteURL:          "http://example.com",
		MediaRoot:        t.TempDir(),
		MediaURL:         "/media",
		RankingCacheSize: 16,
		RankingCacheTTL:  time.Minute,
	}
}

func newServices(t *testing.T, cfg *config.Config) *services.Services {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	types := contenttype.NewRegistry()
	contenttype.RegisterBuiltins(types, cfg.SiteDomain)
	svc, err := services.New(conn, types, cfg)
	require.NoError(t, err)
	return svc
}

// mount installs templates and routes on r.
func mount(t *testing.T, r *gin.Engine, svc *services.Services, cfg *config.Config) *gin.Engine {
	t.Helper()
	renderer, err := handlers.LoadTemplates(templatesDir, handlers.FuncMap(svc.Images))
	require.NoError(t, err)
	r.HTMLRender = renderer
	router.Register(r, svc, cfg)
	return r
}

// newApp returns the routed engine acting as user (nil for anonymous).
func newApp(t *testing.T, svc *services.Services, cfg *config.Config, user *models.User) *gin.Engine {
	return mount(t, testutil.NewEngine(user), svc, cfg)
}

func newArticle(t *testing.T, svc *services.Services, title string, owner *models.User, global bool) *models.Article {
	t.Helper()
	a := &models.Article{Title: title, Body: "Some **body** text"}
	a.IsGlobal = global
	if owner != nil {
		id := owner.ID
		a.UserID = &id
	}
	require.NoError(t, svc.Records.Save(context.Background(), a))
	return a
}

func articleRef(a *models.Article) models.TargetRef {
	return models.TargetRef{ContentType: "blog__article", ObjectID: a.ID}
}

func castVotes(t *testing.T, svc *services.Services, target models.TargetRef, values ...int) {
	t.Helper()
	for i, v := range values {
		u := testutil.CreateUser(t, svc.DB, target.String()+"-voter-"+string(rune('a'+i)))
		require.NoError(t, svc.Votes.Cast(context.Background(), u.ID, target, v))
	}
}

func postForm(h http.Handler, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func getWith(h http.Handler, target string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
