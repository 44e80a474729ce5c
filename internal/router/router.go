// Package router holds the route table.
package router

import (
	"strings"

	"mixins/internal/config"
	"mixins/internal/handlers"
	"mixins/internal/middleware"
	"mixins/internal/services"

	"github.com/gin-gonic/gin"
)

// Register mounts every route on r. Sessions, templates and LoadUser are
// expected to be installed already.
func Register(r *gin.Engine, svc *services.Services, cfg *config.Config) {
	ajaxHandler := handlers.NewAjaxHandler(svc)
	voteHandler := handlers.NewVoteHandler(svc)
	recordHandler := handlers.NewRecordHandler(svc)
	imageHandler := handlers.NewImageHandler(svc)
	authHandler := handlers.NewAuthHandler(svc)
	adminHandler := handlers.NewAdminHandler(svc)
	seoHandler := handlers.NewSEOHandler(svc, cfg.SiteURL)
	siteHandler := handlers.NewSiteHandler(svc, cfg.SiteDomain)

	r.Use(middleware.Domain(cfg.SiteDomain))

	media := "/" + strings.Trim(cfg.MediaURL, "/")
	r.GET(media+"/*filepath", imageHandler.Media)

	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/site", siteHandler.Current)

	// Ajax
	ajax := r.Group("/ajax")
	{
		ajax.GET("/autosuggest", ajaxHandler.Autosuggest)
		ajax.GET("/vote", voteHandler.Vote)
		ajax.GET("/comments", ajaxHandler.Comments)
		ajax.POST("/comments", middleware.AuthRequired(), ajaxHandler.AddComment)
	}

	// Records
	records := r.Group("/records/:contenttype")
	{
		records.GET("/top", recordHandler.Top)
		records.GET("/newest", recordHandler.Newest)
		records.GET("/voteless", recordHandler.Voteless)
		records.GET("/feed", seoHandler.Feed)
		records.POST("/:id/image", middleware.AuthRequired(), imageHandler.Upload)
	}
	r.GET("/r/:contenttype/:id", recordHandler.Detail)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Admin
	admin := r.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/votes", adminHandler.Votes)
		admin.GET("/r/:contenttype/:id", adminHandler.Record)
		admin.POST("/r/:contenttype/:id/delete", adminHandler.Delete)
		admin.POST("/r/:contenttype/:id/clear-votes", adminHandler.ClearVotes)
	}
}
