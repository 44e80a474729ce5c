package testutil

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mixins/internal/db"
	"mixins/internal/middleware"
	"mixins/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupTestDB opens a fresh migrated sqlite database in the test's temp dir.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// CreateUser inserts an active user.
func CreateUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     "user",
		IsActive: true,
	}
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return u
}

// NewEngine returns a gin engine in test mode that logs in as user (nil
// for anonymous) before every handler.
func NewEngine(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.CheckUserKey, user)
		}
		c.Next()
	})
	return r
}

// Do performs a request against h and returns the recorder.
func Do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
