package main

import (
	"log"

	"mixins/internal/config"
	"mixins/internal/contenttype"
	"mixins/internal/db"
	"mixins/internal/handlers"
	"mixins/internal/middleware"
	"mixins/internal/router"
	"mixins/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// Initialize Database
	db.Init(cfg)

	types := contenttype.NewRegistry()
	contenttype.RegisterBuiltins(types, cfg.SiteDomain)

	svc, err := services.New(db.DB, types, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("mixins_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	renderer, err := handlers.LoadTemplates(cfg.TemplatesDir, handlers.FuncMap(svc.Images))
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	r.HTMLRender = renderer

	r.Static("/static", "./web/static")

	r.Use(middleware.LoadUser(db.DB))

	router.Register(r, svc, cfg)

	log.Printf("mixins server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
