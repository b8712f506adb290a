package config

import (
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port      string
	DBDSN     string
	LogFile   string
	StaticDir string

	// Cart persistence: sqlite, redis or memory.
	CartBackend   string
	RedisAddr     string
	RedisPassword string
	CartTTL       time.Duration

	// Catalog source: default, db or file.
	CatalogSource string
	CatalogFile   string

	SiteURL         string
	KhaltiPublicKey string
	KhaltiSecretKey string
	KhaltiAPIURL    string
	// VerifyURL, when set, sends verification to an external endpoint instead
	// of calling Khalti in-process.
	VerifyURL     string
	VerifyTimeout time.Duration
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(env(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Printf("[config] unknown %s=%q, using %s", key, v, def)
	return def
}

func Load() Config {
	port := env("PORT", "8080")
	cfg := Config{
		Port:      port,
		DBDSN:     env("DB_DSN", "nymph.db"),
		LogFile:   env("LOG_FILE", "./nymph.log"),
		StaticDir: env("STATIC_DIR", "./web/static"),

		CartBackend:   oneOf("CART_BACKEND", "sqlite", "sqlite", "redis", "memory"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CartTTL:       duration("CART_TTL", 30*24*time.Hour),

		CatalogSource: oneOf("CATALOG_SOURCE", "default", "default", "db", "file"),
		CatalogFile:   env("CATALOG_FILE", "./catalog.yaml"),

		SiteURL:         env("SITE_URL", "http://localhost:"+port),
		KhaltiPublicKey: os.Getenv("KHALTI_PUBLIC_KEY"),
		KhaltiSecretKey: os.Getenv("KHALTI_SECRET_KEY"),
		KhaltiAPIURL:    env("KHALTI_API_URL", "https://khalti.com/api/v2"),
		VerifyURL:       os.Getenv("VERIFY_URL"),
		VerifyTimeout:   duration("VERIFY_TIMEOUT", 10*time.Second),
	}
	// secrets are never logged
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s STATIC_DIR=%s CART_BACKEND=%s REDIS_ADDR=%s CART_TTL=%s CATALOG_SOURCE=%s CATALOG_FILE=%s SITE_URL=%s KHALTI_API_URL=%s VERIFY_URL=%s VERIFY_TIMEOUT=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.StaticDir, cfg.CartBackend, cfg.RedisAddr, cfg.CartTTL,
		cfg.CatalogSource, cfg.CatalogFile, cfg.SiteURL, cfg.KhaltiAPIURL, cfg.VerifyURL, cfg.VerifyTimeout)
	return cfg
}
