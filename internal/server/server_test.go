package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ripple/internal/config"
	"ripple/internal/media"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeUploader returns a fixed URL or error without touching the network.
type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:       "5000",
		Env:        "test",
		JWTSecret:  "server-test-secret-32-chars-long!!!!",
		BcryptCost: 4,
	}
}

func setupTestServer(t *testing.T, uploader media.Uploader) (*Server, *fiber.App) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}))

	srv, err := NewServerWithDeps(testConfig(), db, nil, uploader)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	parsed := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &parsed), "body: %s", data)
	}
	return resp, parsed
}

// registerUser creates an account through the API and returns its token and ID.
func registerUser(t *testing.T, app *fiber.App, name, email string) (string, uint) {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "register failed: %v", body)

	token := body["token"].(string)
	user := body["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

func TestAuthRequired(t *testing.T) {
	_, app := setupTestServer(t, &fakeUploader{})
	token, _ := registerUser(t, app, "Alice", "alice@example.com")

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"Missing header", "", fiber.StatusUnauthorized},
		{"Not a bearer token", "Basic abc123", fiber.StatusUnauthorized},
		{"Garbage token", "Bearer not.a.token", fiber.StatusUnauthorized},
		{"Valid token", "Bearer " + token, fiber.StatusOK},
		{"Extra whitespace around the scheme", "Bearer   " + token, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/api/profile", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestNewApp_BodyLimitFitsInlineMedia(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeUploader{})
	app := srv.newApp()
	assert.Equal(t, 50*1024*1024, app.Config().BodyLimit)
}

func TestHealthEndpoints(t *testing.T) {
	_, app := setupTestServer(t, &fakeUploader{})

	resp, body := doJSON(t, app, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

var errRelayDown = errors.New("relay down")
