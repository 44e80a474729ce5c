package middleware

import (
	"net/http"

	"mixins/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"

// SessionUserKey is the session entry holding the logged-in user's id.
const SessionUserKey = "user_id"

// CurrentUser returns the user LoadUser put on the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// LoadUser retrieves user from session and sets to context
func LoadUser(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			result := conn.WithContext(c.Request.Context()).First(&user, userID)
			if result.Error == nil && user.IsActive {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in. Pages redirect to the login
// form, ajax requests get 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c).IsAuthenticated() {
			c.Next()
			return
		}
		if c.GetHeader("X-Requested-With") == "XMLHttpRequest" || c.Request.Method != http.MethodGet {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.RequestURI())
		c.Abort()
	}
}

// AdminRequired only lets users with the admin role through.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !user.IsAuthenticated() {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.RequestURI())
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
