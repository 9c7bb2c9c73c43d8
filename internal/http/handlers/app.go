package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"qashop/internal/config"
	applog "qashop/internal/log"
	"qashop/internal/session"
)

const maxBodyBytes = 4 << 20

// NewApp wires middlewares and routes around db.
func NewApp(cfg config.Config, db *sqlx.DB) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard, large enough for a 2 MiB image upload
	app.Server().MaxRequestBodySize = maxBodyBytes

	sessions := session.NewManager(session.Config{
		Expiration:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	})
	deps := NewDeps(db, cfg, sessions)

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        positive(cfg.RateLimit, 60),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") || p == "/healthz"
		},
	}))

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	log.Printf("[static] /media -> %s", mediaDir)
	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}
	app.Get("/media/*", mediaHandler(mediaDir))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// Session and CSRF gate for everything below
	app.Use(sessions.Serialize())
	app.Use(CSRF(sessions, cfg.CookieSecure))
	app.Use(SessionContext(sessions))

	// Catalog
	app.Get("/", deps.ProductHandler.Home)
	app.Get("/product/:id", deps.ProductHandler.Detail)

	// Cart & Orders
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Mutate)
	app.Get("/checkout", RequireUser(), deps.OrderHandler.CheckoutForm)
	app.Post("/checkout", RequireUser(), deps.OrderHandler.Place)
	app.Get("/order-confirmation", RequireUser(), deps.OrderHandler.Confirmation)

	// Auth routes (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        positive(cfg.LoginRateLimit, 5),
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return renderStatus(c, fiber.StatusTooManyRequests, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Admin
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Post("/products", deps.AdminHandler.CreateProduct)
	admin.Post("/products/:id/stock", deps.InventoryHandler.UpdateStock)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// ErrorHandler logs unhandled errors and shows a friendly page without
// internal details.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := http.StatusText(code)
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		msg = "Something went wrong. Please try again."
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// mediaHandler serves stored product images, refusing anything that could
// escape dir.
func mediaHandler(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
