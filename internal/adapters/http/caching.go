package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets default Cache-Control headers on GET responses.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/api/health" || path == "/api/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/api/themes"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/api/locations"):
			ttl = "public, max-age=300" // Geocoding results are stable

		case strings.HasSuffix(path, "/download"):
			ttl = "private, max-age=86400" // Finished posters never change

		case strings.HasPrefix(path, "/api/posters"):
			ttl = "no-store" // Job status is live data
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
