package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "nymph/internal/log"
)

const (
	sidCookie   = "sid"
	toastCookie = "toast"
)

// ensureSID returns the shopper's session id, issuing one on first visit. The
// id is also put in Locals so log lines carry it.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sidCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	c.Locals("sid", sid)
	applog.Bind(c, sid)
	return sid
}

// setToast queues a one-shot message for the next rendered page.
func setToast(c *fiber.Ctx, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     toastCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Minute),
	})
}

func popToast(c *fiber.Ctx) string {
	raw := c.Cookies(toastCookie)
	if raw == "" {
		return ""
	}
	c.ClearCookie(toastCookie)
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

// toastNotifier routes cart notifications into the toast cookie.
type toastNotifier struct{ c *fiber.Ctx }

func (n toastNotifier) Notify(msg string) { setToast(n.c, msg) }

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Toast"]; !ok {
		if msg := popToast(c); msg != "" {
			data["Toast"] = msg
		}
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}
