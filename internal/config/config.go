package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// グローバルな環境変数参照はここ以外で行わない。
type Config struct {
	// Database
	DatabaseURL string

	// Key-Value fallback store
	RedisURL string

	// Identity Provider
	IdentityURL        string
	IdentityServiceKey string

	// Object storage（署名付きURL発行）
	StorageURL   string
	SignedURLTTL time.Duration

	// Admin昇格用シークレット。未設定ならmake-adminは無効（fail-closed）。
	AdminSecretCode string

	// Email（Resend）。未設定なら通知はスキップ（fail-open）。
	ResendAPIKey    string
	NotifyEmailTo   string
	NotifyEmailFrom string

	// Outbound HTTP
	HTTPTimeout time.Duration

	// Rate Limit（未認証POSTエンドポイント、req/min/IP）
	RateLimitPublic int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	cfg.IdentityURL = os.Getenv("IDENTITY_URL")
	if cfg.IdentityURL == "" {
		missing = append(missing, "IDENTITY_URL")
	}

	cfg.IdentityServiceKey = os.Getenv("IDENTITY_SERVICE_KEY")
	if cfg.IdentityServiceKey == "" {
		missing = append(missing, "IDENTITY_SERVICE_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.StorageURL = getEnvString("STORAGE_URL", cfg.IdentityURL)
	cfg.SignedURLTTL = getEnvDuration("SIGNED_URL_TTL", time.Hour)
	cfg.AdminSecretCode = os.Getenv("ADMIN_SECRET_CODE")
	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.NotifyEmailTo = getEnvString("NOTIFY_EMAIL_TO", "")
	cfg.NotifyEmailFrom = getEnvString("NOTIFY_EMAIL_FROM", "PulseCert <noreply@pulsecert.example>")
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	cfg.RateLimitPublic = getEnvInt("RATE_LIMIT_PUBLIC", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// AdminEnabled はmake-adminエンドポイントが有効かどうかを返す。
func (c *Config) AdminEnabled() bool {
	return c.AdminSecretCode != ""
}

// EmailEnabled はメール通知が有効かどうかを返す。
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
