package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"

	applog "nymph/internal/log"
)

// ErrorHandler logs the failure and shows a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
		code, msg = fe.Code, "Page not found"
	}
	applog.Error(c, "server.error", err, nil)
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NotFound is the catch-all route.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
}

// Helmet sets security headers; the CSP lets the Khalti widget load and frame.
func Helmet() fiber.Handler {
	return helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' https://khalti.s3.ap-south-1.amazonaws.com; " +
			"frame-src https://*.khalti.com; " +
			"connect-src 'self' https://*.khalti.com; " +
			"img-src 'self' data: https:; " +
			"style-src 'self' 'unsafe-inline'",
	})
}

// CSRF guards every form post. /verify-khalti takes JSON from the verifier
// client and is exempt.
func CSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/verify-khalti")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf") != ""})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
}

// CSRFLocals exposes the token under the name templates use.
func CSRFLocals(c *fiber.Ctx) error {
	if tok, ok := c.Locals("csrf").(string); ok && tok != "" {
		c.Locals("CSRFToken", tok)
	}
	return c.Next()
}
