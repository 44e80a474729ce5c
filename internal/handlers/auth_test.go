package handlers_test

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"testing"

	"mixins/internal/config"
	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionApp is the full stack: cookie sessions and LoadUser.
func sessionApp(t *testing.T, svc *services.Services, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("secret"))))
	r.Use(middleware.LoadUser(svc.DB))
	return mount(t, r, svc, cfg)
}

// html/template writes "+" as &#43;
var captchaRe = regexp.MustCompile(`What is (\d+) (\+|&#43;|-) (\d+)\?`)

// solveCaptcha fetches the signup form and answers its question.
func solveCaptcha(t *testing.T, app http.Handler) (string, []*http.Cookie) {
	t.Helper()
	w := getWith(app, "/signup", nil)
	require.Equal(t, http.StatusOK, w.Code)

	m := captchaRe.FindStringSubmatch(w.Body.String())
	require.NotNil(t, m, w.Body.String())
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	answer := a + b
	if m[2] == "-" {
		answer = a - b
	}
	return strconv.Itoa(answer), w.Result().Cookies()
}

func TestSignupAndLogin(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	app := sessionApp(t, svc, cfg)

	answer, cookies := solveCaptcha(t, app)
	w := postForm(app, "/signup", url.Values{
		"username": {"carol"},
		"email":    {"carol@example.com"},
		"password": {"s3cret!"},
		"captcha":  {answer},
	}, cookies...)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, svc.DB.Where("username = ?", "carol").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.True(t, utils.CheckPasswordHash("s3cret!", user.Password))

	// the same username again
	answer, cookies = solveCaptcha(t, app)
	w = postForm(app, "/signup", url.Values{
		"username": {"carol"},
		"email":    {"other@example.com"},
		"password": {"s3cret!"},
		"captcha":  {answer},
	}, cookies...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postForm(app, "/login", url.Values{"login": {"carol@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postForm(app, "/login", url.Values{"login": {"carol"}, "password": {"s3cret!"}, "next": {"/records/blog__article/top"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/records/blog__article/top", w.Header().Get("Location"))

	// the session cookie logs the user in
	w = getWith(app, "/records/blog__article/top", nil, w.Result().Cookies()...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carol")
}

func TestSignupRejectsWrongCaptcha(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	app := sessionApp(t, svc, cfg)

	answer, cookies := solveCaptcha(t, app)
	wrong, _ := strconv.Atoi(answer)
	w := postForm(app, "/signup", url.Values{
		"username": {"dave"},
		"email":    {"dave@example.com"},
		"password": {"s3cret!"},
		"captcha":  {strconv.Itoa(wrong + 1)},
	}, cookies...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	svc.DB.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestLoginRedirectsOnlyLocally(t *testing.T) {
	cfg := testConfig(t)
	svc := newServices(t, cfg)
	hash, err := utils.HashPassword("pw123456")
	require.NoError(t, err)
	require.NoError(t, svc.DB.Create(&models.User{Username: "erin", Email: "erin@example.com", Password: hash, Role: "user", IsActive: true}).Error)
	app := sessionApp(t, svc, cfg)

	w := postForm(app, "/login", url.Values{"login": {"erin"}, "password": {"pw123456"}, "next": {"//evil.example.org/"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
