package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/password"
	"gallery/internal/server"
	"gallery/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) (*server.Server, func()) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)

	srv, err := server.New(server.Deps{
		Config: &config.Config{
			Auth:   config.AuthConfig{JWTSecret: "secret"},
			Images: config.ImagesConfig{PageSize: 2, MaxBytes: 1024},
		},
		DB:     db,
		Store:  storage.NewMemoryStore("http://cdn.test"),
		Hasher: password.NewPool(password.Bcrypt{Cost: 4}, 1),
	})
	require.NoError(t, err)
	return srv, func() { _ = database.Close(db) }
}

func get(t *testing.T, srv *server.Server, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := server.New(server.Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, closeDB := newServer(t)

	status, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "connected", body["database"])

	closeDB()
	status, body = get(t, srv, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	srv, closeDB := newServer(t)
	defer closeDB()

	status, body := get(t, srv, "/api/nowhere")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}
