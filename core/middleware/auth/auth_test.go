package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		path   string
		header string
		want   int
	}{
		{"ValidHeader", Config{ApiKey: "secret"}, "/sync/status", "secret", fiber.StatusOK},
		{"ValidQuery", Config{ApiKey: "secret"}, "/sync/status?api_key=secret", "", fiber.StatusOK},
		{"WrongKey", Config{ApiKey: "secret"}, "/sync/status", "nope", fiber.StatusUnauthorized},
		{"MissingKey", Config{ApiKey: "secret"}, "/sync/status", "", fiber.StatusUnauthorized},
		{"Disabled", Config{}, "/sync/status", "", fiber.StatusOK},
		{"SkippedPath", Config{ApiKey: "secret", Skip: []string{"/metrics"}}, "/metrics", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(tt.cfg)
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
