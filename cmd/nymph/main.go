package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"nymph/internal/config"
	"nymph/internal/http/handlers"
	"nymph/internal/payment"
	"nymph/internal/repos"
	"nymph/internal/services"
	"nymph/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedProductsIfEmpty(db, services.DefaultProducts()); err != nil {
		log.Fatal(err)
	}

	catalog, err := loadCatalog(cfg, db)
	if err != nil {
		log.Fatal(err)
	}
	kv := cartBackend(cfg, db)

	// Verification: in-process Khalti call unless an external endpoint is set.
	khalti := payment.NewBreaker(
		payment.NewKhaltiVerifier(cfg.KhaltiAPIURL, cfg.KhaltiSecretKey, cfg.VerifyTimeout),
		"khalti", 5, 30*time.Second)
	checkoutVerifier := khalti
	if cfg.VerifyURL != "" {
		checkoutVerifier = payment.NewBreaker(payment.NewHTTPVerifier(cfg.VerifyURL, cfg.VerifyTimeout), "verify-endpoint", 5, 30*time.Second)
		log.Printf("[verify] checkout verifies via %s", cfg.VerifyURL)
	}
	ctl := services.NewCheckoutController(checkoutVerifier, services.CheckoutSettings{
		PublicKey:  cfg.KhaltiPublicKey,
		ProductURL: cfg.SiteURL,
	})

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(handlers.Helmet())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(handlers.CSRF())
	app.Use(handlers.CSRFLocals)

	// ---------- Static assets ----------
	log.Printf("[static] /static -> %s", cfg.StaticDir)
	app.Static("/static", cfg.StaticDir)

	// ---------- App handlers ----------
	deps := handlers.NewDeps(kv, catalog, ctl, khalti)
	deps.Mount(app)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "verifier": checkoutVerifier.State()})
	})
	app.Use(handlers.NotFound)

	log.Fatal(app.Listen(":" + cfg.Port))
}

func loadCatalog(cfg config.Config, db *sqlx.DB) (services.Catalog, error) {
	switch cfg.CatalogSource {
	case "file":
		log.Printf("[catalog] loading %s", cfg.CatalogFile)
		return services.LoadCatalogFile(cfg.CatalogFile)
	case "db":
		log.Printf("[catalog] loading products table")
		return services.LoadCatalogDB(context.Background(), repos.NewProductRepo(db))
	default:
		return services.DefaultCatalog(), nil
	}
}

func cartBackend(cfg config.Config, db *sqlx.DB) storage.Store {
	switch cfg.CartBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(context.Background()).Err(); err != nil {
			// carts still load empty and writes are logged until redis is back
			log.Printf("[warn] redis %s unreachable: %v", cfg.RedisAddr, err)
		}
		log.Printf("[cart] backend redis %s ttl=%s", cfg.RedisAddr, cfg.CartTTL)
		return storage.NewRedis(client, cfg.CartTTL)
	case "memory":
		log.Printf("[cart] backend memory")
		return storage.NewMemory()
	default:
		log.Printf("[cart] backend sqlite %s", cfg.DBDSN)
		return repos.NewKVRepo(db)
	}
}
