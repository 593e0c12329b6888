package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"butik/internal/config"
	"butik/internal/http/handlers"
	applog "butik/internal/log"
	"butik/internal/metrics"
	"butik/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(handlers.Envelope{
				Success: false,
				Error:   "internal error",
			})
		},
	})
	app.Server().MaxRequestBodySize = 5 << 20 // 5 MiB, bounded by proof/image uploads

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	m := metrics.New("api")
	app.Use(m.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/public/")
		},
	}))

	// ---------- Static media ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/public/images", mediaDir)

	deps := handlers.NewDeps(db, cfg)
	requireUser := handlers.RequireUser(deps.Auth)
	requireAdmin := handlers.RequireAdmin(deps.Auth)

	// Users
	users := app.Group("/users")
	users.Post("/create", deps.AuthHandler.Register)
	users.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.Envelope{
				Success: false, Error: "too many attempts, retry later",
			})
		},
	}), deps.AuthHandler.Login)
	users.Get("/all", requireAdmin, deps.AuthHandler.List)
	users.Put("/edit/:id", requireUser, deps.AuthHandler.Edit)
	users.Delete("/delete/:id", requireAdmin, deps.AuthHandler.Delete)

	// Products
	products := app.Group("/products")
	products.Get("/", deps.ProductHandler.List)
	products.Get("/search", deps.ProductHandler.Search)
	products.Get("/dashboard/stats", requireAdmin, deps.ProductHandler.Stats)
	products.Post("/create", requireAdmin, deps.ProductHandler.Create)
	products.Get("/:id", deps.ProductHandler.Get)
	products.Get("/:id/availability", deps.ProductHandler.Availability)
	products.Put("/:id", requireAdmin, deps.ProductHandler.Update)
	products.Delete("/:id", requireAdmin, deps.ProductHandler.Delete)

	// Cart
	cart := app.Group("/cart", requireUser)
	cart.Post("/create", deps.CartHandler.Add)
	cart.Get("/", deps.CartHandler.List)
	cart.Post("/clear", deps.CartHandler.Clear)
	cart.Put("/:id", deps.CartHandler.Update)
	cart.Delete("/:id", deps.CartHandler.Remove)

	// Orders
	orders := app.Group("/orders", requireUser)
	orders.Post("/create", deps.OrderHandler.Create)
	orders.Get("/", deps.OrderHandler.List)
	orders.Get("/summary", deps.OrderHandler.StatusSummary)
	orders.Get("/reports/sales", deps.ReportHandler.Sales)
	orders.Get("/:id", deps.OrderHandler.Get)
	orders.Put("/:id", deps.OrderHandler.Update)
	orders.Put("/:id/transfer-proof", deps.OrderHandler.AttachProof)
	orders.Delete("/:id", requireAdmin, deps.OrderHandler.Delete)

	// Health & metrics
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	log.Fatal(app.Listen(":" + cfg.Port))
}
