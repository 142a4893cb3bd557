package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecureHeaders hardens every response. This server only ever emits JSON
// envelopes and the beacon PNG, so the CSP starts from 'none' and opens
// just enough for the pixel; the no-store caching headers on the beacon
// route itself are set by the pixel package, not here.
func SecureHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			// Mail clients and scanners fetch /track with odd Accept
			// headers; never let a response get sniffed into something
			// renderable
			h.Set("X-Content-Type-Options", "nosniff")

			// XSS Protection (legacy browsers)
			h.Set("X-XSS-Protection", "1; mode=block")

			// No scripts, styles, or frames are served from here; the
			// pixel is the only image
			h.Set("Content-Security-Policy",
				"default-src 'none'; img-src 'self'; connect-src 'self'; frame-ancestors 'none'")

			// HSTS (only enable over HTTPS)
			if c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			// Beacon fetches must not leak the reader's mail context
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Permissions policy
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			return next(c)
		}
	}
}
