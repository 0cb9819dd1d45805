package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/logger"
	adapter "github.com/municipal-dp/digital-profile/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP        string `json:"ip"`
	Status    int    `json:"status"`
	URI       string `json:"uri"`
	Method    string `json:"method"`
	Host      string `json:"host"`
	Principal string `json:"principal"`
	Error     string `json:"error"`
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		skip       []string
		want       *accessLine
	}{
		{
			name:       "get root",
			targetPath: "/",
			want:       &accessLine{Status: 200, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "query string kept",
			targetPath: "/?test=123",
			want:       &accessLine{Status: 200, URI: "/?test=123", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "raw multi slash uri",
			targetPath: "/no_path//?test=123",
			want:       &accessLine{Status: 404, URI: "/no_path//?test=123", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "handler error rendered before logging",
			targetPath: "/fail",
			want: &accessLine{
				Status: 418, URI: "/fail", Method: fiber.MethodGet, Host: "example.com", Error: "teapot",
			},
		},
		{
			name:       "skipped path",
			targetPath: "/checkalive",
			skip:       []string{"/checkalive"},
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			app := fiber.New()
			app.Use(adapter.New(adapter.Config{
				Log:    logger.Log{SkipPaths: tt.skip},
				Output: &buf,
			}))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString("hello test") })
			app.Get("/checkalive", func(c *fiber.Ctx) error { return c.SendString("OK") })
			app.Get("/fail", func(_ *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "teapot") })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.targetPath, nil))
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, buf.String())
				return
			}

			assert.Equal(t, tt.want.Status, resp.StatusCode)

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &got))

			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Host, got.Host)
			if tt.want.Error != "" {
				assert.Equal(t, tt.want.Error, got.Error)
			}
			assert.Equal(t, "0.0.0.0", got.IP)
		})
	}
}

func TestPrincipalIsLogged(t *testing.T) {
	var buf bytes.Buffer

	app := fiber.New()
	app.Use(adapter.New(adapter.Config{
		Output:    &buf,
		Principal: func(_ *fiber.Ctx) string { return "admin@example.com" },
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"principal":"admin@example.com"`)
}

func TestNoWritersPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(adapter.New())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
