package web

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "irisvault_notice"

// setFlash stores a one-shot notice in a short-lived cookie. The next page
// render consumes and clears it.
func setFlash(c *fiber.Ctx, notice string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(notice),
		Expires:  time.Now().Add(time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending notice, if any.
func takeFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	notice, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return notice
}
