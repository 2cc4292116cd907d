//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-presensi/internal/config"
	"go-presensi/internal/database"
	"go-presensi/internal/handler"
	"go-presensi/internal/metrics"
	"go-presensi/internal/middleware"
	"go-presensi/internal/photo"
	"go-presensi/internal/repository"
	"go-presensi/internal/revocation"
	"go-presensi/internal/router"
	"go-presensi/internal/service"
	"go-presensi/internal/storage"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

var jakarta = time.FixedZone("UTC+07:00", 7*3600)

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 20, 5)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.SQL.ExecContext(ctx, "TRUNCATE presensi, users CASCADE")
	require.NoError(t, err)

	return db
}

func newServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()

	db := openTestDB(t)
	m := metrics.New()

	photos, err := storage.New(t.TempDir(), "/uploads")
	require.NoError(t, err)

	authService := service.NewAuthService(repository.NewUserRepository(db.SQL), revocation.NewMemoryStore(), service.AuthConfig{
		Secret:     "integration-secret",
		TTL:        time.Hour,
		BcryptCost: 4,
	}, m)
	processor := photo.NewProcessor(1<<20, 640)
	presensiService := service.NewPresensiService(repository.NewPresensiRepository(db.SQL), photos, processor, jakarta, m)
	reportService := service.NewReportService(repository.NewReportRepository(db.SQL), jakarta)

	_, err = authService.EnsureSeedAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:  10 * time.Second,
		CORSOrigins:     []string{"*"},
		PhotoPublicPath: "/uploads",
		DisplayLocation: jakarta,
	}

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Presensi: handler.NewPresensiHandler(presensiService, jakarta, processor),
		Report:   handler.NewReportHandler(reportService),
		Health:   handler.NewHealthHandler(map[string]handler.HealthCheck{"database": db.Health}),
	}, m, http.Dir(photos.RootAbs())))
	t.Cleanup(server.Close)

	return server, db
}

func doJSON(t *testing.T, method string, url string, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func registerAndLogin(t *testing.T, baseURL string, email string, password string, role string) string {
	t.Helper()

	if role != "" {
		resp, env := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/register", "", map[string]string{
			"email":    email,
			"password": password,
			"role":     role,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	}

	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}
