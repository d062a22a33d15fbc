package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "app_secret"

func newSignedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Post("/hook", VerifySignature(secret), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := `{"object":"page"}`

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid signature", testSecret, sign(testSecret, body), http.StatusOK},
		{"missing header", testSecret, "", http.StatusForbidden},
		{"wrong secret", testSecret, sign("other_secret", body), http.StatusForbidden},
		{"missing prefix", testSecret, strings.TrimPrefix(sign(testSecret, body), "sha256="), http.StatusForbidden},
		{"garbage hex", testSecret, "sha256=zzzz", http.StatusForbidden},
		{"empty secret disables validation", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newSignedApp(tt.secret)
			req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
			if tt.header != "" {
				req.Header.Set("X-Hub-Signature-256", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
