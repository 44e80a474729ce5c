package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程级配置，全部来自环境变量
type Config struct {
	Port          string
	DBDriver      string // postgres, mysql, sqlite
	DatabaseURL   string
	SessionSecret string

	// SiteDomain is the domain subdomains are resolved against.
	SiteDomain string
	// SiteURL is the absolute base for links in feeds and the sitemap.
	SiteURL string

	MediaRoot    string
	MediaURL     string
	TemplatesDir string

	GeocoderKey string
	GeocoderURL string

	RankingCacheTTL  time.Duration
	RankingCacheSize int
}

const defaultGeocoderURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Load reads .env (if any) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		SessionSecret:    getEnv("SESSION_SECRET", "secret_key_change_me"),
		SiteDomain:       getEnv("SITE_DOMAIN", "localhost"),
		SiteURL:          getEnv("SITE_URL", "http://localhost:8080"),
		MediaRoot:        getEnv("MEDIA_ROOT", "./web/media"),
		MediaURL:         getEnv("MEDIA_URL", "/media"),
		TemplatesDir:     getEnv("TEMPLATES_DIR", "./web/templates"),
		GeocoderKey:      os.Getenv("GEOCODER_KEY"),
		GeocoderURL:      getEnv("GEOCODER_URL", defaultGeocoderURL),
		RankingCacheTTL:  getDuration("RANKING_CACHE_TTL", time.Minute),
		RankingCacheSize: getInt("RANKING_CACHE_SIZE", 500),
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDSN(cfg.DBDriver))
	return cfg
}

// defaultDSN fallback for local dev if DATABASE_URL is not set
func defaultDSN(driver string) string {
	switch driver {
	case "mysql":
		return "root:root@tcp(127.0.0.1:3306)/mixins?charset=utf8mb4&parseTime=True&loc=Local"
	case "sqlite":
		return "mixins.db"
	default:
		return "host=localhost user=postgres password=postgres dbname=mixins port=5432 sslmode=disable"
	}
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getInt(name string, fallback int) int {
	s := os.Getenv(name)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using %d", name, s, fallback)
		return fallback
	}
	return v
}

func getDuration(name string, fallback time.Duration) time.Duration {
	s := os.Getenv(name)
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", name, s, fallback)
		return fallback
	}
	return d
}
