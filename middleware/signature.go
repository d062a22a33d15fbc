package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// VerifySignature validates the X-Hub-Signature-256 header against the
// HMAC-SHA256 of the raw request body using the app secret. An empty
// secret disables validation (local testing).
func VerifySignature(appSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if appSecret == "" {
			return c.Next()
		}

		signature := c.Get("X-Hub-Signature-256")
		if signature == "" {
			slog.Warn("Webhook request without signature header")
			return c.SendStatus(fiber.StatusForbidden)
		}

		if !validSignature(c.Body(), signature, appSecret) {
			slog.Warn("Webhook request with invalid signature")
			return c.SendStatus(fiber.StatusForbidden)
		}

		return c.Next()
	}
}

// validSignature checks a "sha256=<hex>" header value with a
// constant-time comparison.
func validSignature(body []byte, header, appSecret string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	received, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}
