package config

import (
	"fmt"
	"os"
)

// 環境変数から読み込むアプリ設定。
type Config struct {
	Port      string
	JWTSecret string
	LogLevel  string

	//cookieのSecure属性を付けるかどうか
	CookieSecure bool

	//CORSで許可するオリジン
	FrontendOrigin string
}

func Load() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		FrontendOrigin: getenv("FRONTEND_ORIGIN", "http://localhost:3000"),
	}

	//JWT_SECRETは必須
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
