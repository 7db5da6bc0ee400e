package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// 开发环境默认密钥，生产环境禁止使用
const (
	defaultSessionSecret = "secret_key_change_me"
	defaultJWTSecret     = "citybasic-dev-secret"
)

var (
	ErrDefaultSessionSecret = errors.New("SESSION_SECRET must be set in production")
	ErrDefaultJWTSecret     = errors.New("AUTH_JWT_SECRET must be set in production")
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SiteURL     string

	SessionSecret string
	JWTSecret     string

	GoogleClientID     string
	GoogleClientSecret string

	// 内容文件
	ContentDir       string
	ContentCacheSize int
	SitemapFile      string

	CORSOrigins []string

	DBMaxOpenConns int
	DBMaxIdleConns int
}

func Load() Config {
	return Config{
		Port:               getenv("PORT", "8080"),
		Env:                getenv("APP_ENV", "development"),
		DatabaseURL:        getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=citybasic port=5432 sslmode=disable TimeZone=UTC"),
		SiteURL:            strings.TrimSuffix(getenv("SITE_URL", "http://localhost:8080"), "/"),
		SessionSecret:      getenv("SESSION_SECRET", defaultSessionSecret),
		JWTSecret:          getenv("AUTH_JWT_SECRET", defaultJWTSecret),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		ContentDir:         getenv("CONTENT_DIR", "./data/cities"),
		ContentCacheSize:   getenvInt("CONTENT_CACHE_SIZE", 256),
		SitemapFile:        getenv("SITEMAP_FILE", "./data/sitemap-urls.txt"),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "*")),
		DBMaxOpenConns:     getenvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:     getenvInt("DB_MAX_IDLE_CONNS", 10),
	}
}

// IsProduction 用于切换日志格式和 cookie 安全属性
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects production configs still using the development secrets.
func (c Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret {
		return ErrDefaultSessionSecret
	}
	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
