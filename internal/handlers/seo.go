package handlers

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"mixins/internal/contenttype"
	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const (
	feedSize    = 20
	sitemapSize = 500
)

type SEOHandler struct {
	svc     *services.Services
	siteURL string
}

func NewSEOHandler(svc *services.Services, siteURL string) *SEOHandler {
	return &SEOHandler{svc: svc, siteURL: strings.TrimRight(siteURL, "/")}
}

// absURL prefixes site-relative links with the site URL.
func (h *SEOHandler) absURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return h.siteURL + u
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /ajax/
Disallow: /login
Disallow: /signup

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the newest global records of every type that has a
// public URL.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ctx := c.Request.Context()
	types := h.svc.Types.All()
	sort.Slice(types, func(i, j int) bool { return types[i].Key() < types[j].Key() })

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	fmt.Fprintf(&b, "  <url>\n    <loc>%s/</loc>\n    <changefreq>daily</changefreq>\n    <priority>1.0</priority>\n  </url>\n", h.siteURL)

	for _, ct := range types {
		recs, err := services.Objects(ctx, h.svc.DB, ct).Globals(nil).ByDate().Limit(sitemapSize).Find()
		if err != nil {
			log.Printf("sitemap: listing %s failed: %v", ct, err)
			continue
		}
		for _, rec := range recs {
			loc := h.absURL(ct.URL(rec))
			if loc == "" {
				continue
			}
			b.WriteString("  <url>\n")
			fmt.Fprintf(&b, "    <loc>%s</loc>\n", html.EscapeString(loc))
			if ts, ok := rec.(models.Timestamped); ok && !ts.Created().IsZero() {
				fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", ts.Created().Format("2006-01-02"))
			}
			b.WriteString("  </url>\n")
		}
	}
	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// Feed handles GET /records/:contenttype/feed, an RSS 2.0 feed of the
// newest global records.
func (h *SEOHandler) Feed(c *gin.Context) {
	ct, err := h.svc.Types.Lookup(c.Param("contenttype"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	ctx := c.Request.Context()
	recs, err := services.Objects(ctx, h.svc.DB, ct).Globals(middleware.CurrentUser(c)).Newest(feedSize)
	if err != nil {
		log.Printf("feed %s failed: %v", ct, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	feed := &feeds.Feed{
		Title:       "Newest " + ct.Model,
		Link:        &feeds.Link{Href: h.siteURL + c.Request.URL.Path},
		Description: "Recently added " + ct.String() + " records",
		Created:     time.Now(),
	}
	for _, rec := range recs {
		feed.Items = append(feed.Items, h.feedItem(ctx, ct, rec))
	}

	rss, err := feed.ToRss()
	if err != nil {
		log.Printf("feed %s: formatting RSS failed: %v", ct, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

func (h *SEOHandler) feedItem(ctx context.Context, ct *contenttype.ContentType, rec models.Record) *feeds.Item {
	link := h.absURL(ct.URL(rec))
	item := &feeds.Item{
		Id:          fmt.Sprintf("%s:%d", ct.Key(), rec.GetID()),
		IsPermaLink: "false",
		Title:       recordLabel(ctx, h.svc, ct, rec),
		Link:        &feeds.Link{Href: link},
	}
	if body, ok := ct.FieldValue(ctx, h.svc.DB.NamingStrategy, rec, "body"); ok && body != "" {
		item.Description = utils.Truncate(utils.PlainText(string(utils.RenderMarkdown(body))), 300)
	}
	if ts, ok := rec.(models.Timestamped); ok {
		item.Created = ts.Created()
	}
	return item
}
