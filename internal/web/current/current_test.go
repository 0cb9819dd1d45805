package current

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/token"
)

func tokenConfig(secret, audience string) token.Config {
	return token.Config{
		Secret:     []byte(strings.Repeat(secret, 32)),
		Issuer:     "digital-profile",
		Audience:   audience,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			raw, ok := BearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)

			if tc.ok {
				assert.Equal(t, tc.token, raw)
			}
		})
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body.Code
}

func newApp(svc *token.CitizenService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			e := apperror.From(err)
			return c.Status(e.HTTPStatus()).JSON(fiber.Map{"code": e.Code(), "details": e.Details})
		},
	})

	app.Get("/citizen", func(c *fiber.Ctx) error {
		id, err := CitizenID(c, svc)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"code": "OK", "id": id.String()})
	})

	app.Get("/staff", func(c *fiber.Ctx) error {
		if c.Get("X-Staff") != "" {
			auth.SetPrincipal(c, &auth.Principal{ID: models.NewID(), Kind: auth.KindStaff})
		}

		if c.Get("X-Citizen") != "" {
			auth.SetPrincipal(c, &auth.Principal{ID: models.NewID(), Kind: auth.KindCitizen})
		}

		if _, err := UserID(c); err != nil {
			return err
		}

		return c.JSON(fiber.Map{"code": "OK"})
	})

	return app
}

func TestCitizenID(t *testing.T) {
	citizens, err := token.NewCitizenService(tokenConfig("c", "digital-profile-citizen"), token.NewMemoryBlacklist())
	require.NoError(t, err)

	staff, err := token.NewStaffService(tokenConfig("s", "digital-profile-staff"), token.NewMemoryBlacklist())
	require.NoError(t, err)

	citizen := models.NewCitizen("resident@example.com", "hash", "Resident")

	valid, err := citizens.GenerateToken(citizen)
	require.NoError(t, err)

	refresh, err := citizens.GenerateRefreshToken(citizen)
	require.NoError(t, err)

	expired, err := citizens.GenerateExpiredToken(citizen)
	require.NoError(t, err)

	withoutID, err := citizens.GenerateToken(&models.Citizen{Email: "anonymous@example.com"})
	require.NoError(t, err)

	staffToken, err := staff.GenerateToken(models.NewUser("officer@example.com", "hash", "Officer"))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "OK"},
		{"no header", "", http.StatusUnauthorized, string(apperror.KindUnauthenticated)},
		{"not bearer", "Token " + valid, http.StatusUnauthorized, string(apperror.KindUnauthenticated)},
		{"garbage", "Bearer garbage", http.StatusUnauthorized, string(apperror.KindInvalidToken)},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, string(apperror.KindInvalidToken)},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, string(apperror.KindInvalidToken)},
		{"staff token", "Bearer " + staffToken, http.StatusUnauthorized, string(apperror.KindInvalidToken)},
		{"missing claim", "Bearer " + withoutID, http.StatusUnauthorized, string(apperror.KindJwtAuthentication)},
	}

	app := newApp(citizens)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/citizen", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, resp))
		})
	}

	require.NoError(t, citizens.InvalidateToken(t.Context(), valid))

	req := httptest.NewRequest(http.MethodGet, "/citizen", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+valid)

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, string(apperror.KindInvalidToken), errorCode(t, resp))
}

func TestUserID(t *testing.T) {
	citizens, err := token.NewCitizenService(tokenConfig("c", "digital-profile-citizen"), token.NewMemoryBlacklist())
	require.NoError(t, err)

	app := newApp(citizens)

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{"staff", "X-Staff", http.StatusOK},
		{"citizen", "X-Citizen", http.StatusUnauthorized},
		{"anonymous", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, "1")
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
