package handlers

import (
	"net/http"

	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"

	"github.com/gin-gonic/gin"
)

type SiteHandler struct {
	svc        *services.Services
	siteDomain string
}

func NewSiteHandler(svc *services.Services, siteDomain string) *SiteHandler {
	return &SiteHandler{svc: svc, siteDomain: siteDomain}
}

// Current handles GET /site: the Site the request host belongs to,
// looked up by subdomain or by custom domain.
func (h *SiteHandler) Current(c *gin.Context) {
	if c.GetBool(middleware.MainDomainKey) {
		h.respond(c, http.StatusOK, gin.H{"main_domain": true})
		return
	}

	tx := h.svc.DB.WithContext(c.Request.Context())
	if sub := c.GetString(middleware.SubdomainKey); sub != "" {
		tx = tx.Where("subdomain = ?", sub)
	} else if domain := c.GetString(middleware.DomainKey); domain != "" {
		tx = tx.Where("domain = ?", domain)
	} else {
		h.respond(c, http.StatusNotFound, gin.H{"error": "no site for this host"})
		return
	}

	var site models.Site
	if err := tx.First(&site).Error; err != nil {
		h.respond(c, http.StatusNotFound, gin.H{"error": "no site for this host"})
		return
	}
	h.respond(c, http.StatusOK, gin.H{
		"main_domain": false,
		"site":        site,
		"url":         site.Domain.URL(h.siteDomain, false),
	})
}

func (h *SiteHandler) respond(c *gin.Context, code int, data gin.H) {
	if wantsJSON(c) || c.Query("format") == "json" {
		c.JSON(code, data)
		return
	}
	if code != http.StatusOK {
		RenderError(c, code, "No site is served from this address")
		return
	}
	Render(c, code, "site/detail.html", data)
}
