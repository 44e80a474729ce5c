package handlers

import (
	"context"
	"fmt"
	"strings"

	"mixins/internal/contenttype"
	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	if sub, ok := c.Get(middleware.SubdomainKey); ok {
		obj["Subdomain"] = sub
	}

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// recordLabel is the text a record is shown as: its autosuggest field,
// else "<type> #<id>".
func recordLabel(ctx context.Context, svc *services.Services, ct *contenttype.ContentType, rec models.Record) string {
	if field := ct.AutosuggestField(); field != "" {
		if v, ok := ct.FieldValue(ctx, svc.DB.NamingStrategy, rec, field); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("%s #%d", ct, rec.GetID())
}

// lookupRecord resolves the :contenttype and :id params to a live record.
func lookupRecord(c *gin.Context, svc *services.Services) (*contenttype.ContentType, models.Record, bool) {
	ct, err := svc.Types.Lookup(c.Param("contenttype"))
	if err != nil {
		return nil, nil, false
	}
	id, ok := utils.StringToUint(c.Param("id"))
	if !ok {
		return ct, nil, false
	}
	rec, err := services.Objects(c.Request.Context(), svc.DB, ct).First(id)
	if err != nil {
		return ct, nil, false
	}
	return ct, rec, true
}

func wantsJSON(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}
