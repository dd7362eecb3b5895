package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/metrics"
	"eroz/backend/models"
	"eroz/backend/utils"
)

func newTestDB(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.DBDriver = "sqlite"
	cfg.DBPath = "file::memory:"
	cfg.JWTSecret = "testsecret"
	cfg.TokenTTL = time.Hour

	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, cfg
}

func TestAuthMiddleware(t *testing.T) {
	db, cfg := newTestDB(t)

	prof := models.User{Email: "prof@example.com", PasswordHash: "x", FirstName: "P", LastName: "Q", Role: models.RoleProf}
	student := models.User{Email: "student@example.com", PasswordHash: "x", FirstName: "S", LastName: "T", Role: models.RoleStudent}
	require.NoError(t, db.Create(&prof).Error)
	require.NoError(t, db.Create(&student).Error)

	app := fiber.New()
	app.Get("/me", AuthMiddleware(cfg, db), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).Email)
	})
	app.Get("/staff", AuthMiddleware(cfg, db), StaffOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	call := func(path string, user *models.User) int {
		req := httptest.NewRequest("GET", path, nil)
		if user != nil {
			token, err := utils.GenerateJWTToken(user.ID, user.Role, cfg)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusUnauthorized, call("/me", nil))
	assert.Equal(t, fiber.StatusOK, call("/me", &student))
	assert.Equal(t, fiber.StatusForbidden, call("/staff", &student))
	assert.Equal(t, fiber.StatusOK, call("/staff", &prof))

	// The role comes from the store, not from the token.
	stale := student
	require.NoError(t, db.Model(&student).Update("role", models.RoleProf).Error)
	assert.Equal(t, fiber.StatusOK, call("/staff", &stale))

	ghost := models.User{Model: gorm.Model{ID: 9999}, Role: models.RoleAdmin}
	assert.Equal(t, fiber.StatusUnauthorized, call("/me", &ghost))
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := metrics.NewManager()

	app := fiber.New()
	app.Use(LoggingMiddleware(zap.New(core).Sugar(), m))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/fail", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "no") })

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "abc-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)

	n, err := testutil.GatherAndCount(m.Registry(), "eroz_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
