package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifelog/apiserver/config"
	"github.com/lifelog/apiserver/internal/handlers"
	"github.com/lifelog/apiserver/internal/store"
	"github.com/lifelog/apiserver/types"
)

type apiFixture struct {
	router  http.Handler
	dataDir string
}

func testConfig(dataDir string) config.Config {
	return config.Config{
		DataDir:         dataDir,
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		AllowedOrigins:  []string{"*"},
		LoginRateLimit:  100,
		LoginRateWindow: time.Minute,
	}
}

// newAPIFixture boots a server over a fresh data directory with an admin
// and a plain user already present.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	dataDir := t.TempDir()

	users := store.NewUserRepository(dataDir)
	ctx := context.Background()
	for _, u := range []struct {
		username, password, role string
	}{
		{"admin", "admin-pass", types.RoleAdmin},
		{"alice", "alice-pass", types.RoleUser},
		{"bob", "bob-pass", types.RoleUser},
	} {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		require.NoError(t, err)
		_, err = users.Create(ctx, types.User{
			Username:     u.username,
			Role:         u.role,
			PasswordHash: string(hashed),
		})
		require.NoError(t, err)
	}

	srv, err := New(ctx, testConfig(dataDir), zerolog.Nop())
	require.NoError(t, err)
	return &apiFixture{router: srv.Router(), dataDir: dataDir}
}

func (fx *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func (fx *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := fx.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value))
	return value
}

func TestNewRequiresJWTSecret(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.JWTSecret = ""
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewFailsWithoutAdminPasswordOnFirstBoot(t *testing.T) {
	_, err := New(context.Background(), testConfig(t.TempDir()), zerolog.Nop())
	assert.Error(t, err)

	cfg := testConfig(t.TempDir())
	cfg.AdminPassword = "bootstrap"
	srv, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader([]byte(`{"username":"admin","password":"bootstrap"}`)))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	fx := newAPIFixture(t)
	for _, path := range []string{"/health", "/healthz"} {
		rec := fx.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	fx := newAPIFixture(t)

	unknown := fx.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ghost", "password": "x"})
	wrongPassword := fx.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "x"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPassword.Body.String(), "unknown user and bad password must be indistinguishable")

	missing := fx.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestLoginResponseOmitsPasswordHash(t *testing.T) {
	fx := newAPIFixture(t)
	rec := fx.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "alice-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	fx := newAPIFixture(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/categories"},
		{http.MethodPost, "/api/categories"},
		{http.MethodGet, "/api/entries"},
		{http.MethodPost, "/api/entries"},
		{http.MethodDelete, "/api/entries/e1"},
		{http.MethodGet, "/api/me"},
	}
	for _, p := range paths {
		rec := fx.do(t, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}

	rec := fx.do(t, http.MethodGet, "/api/entries", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	fx := newAPIFixture(t)
	token := fx.login(t, "alice", "alice-pass")

	rec := fx.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeInto[types.User](t, rec)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, types.RoleUser, user.Role)
}

func TestTaxonomyAdminGating(t *testing.T) {
	fx := newAPIFixture(t)
	admin := fx.login(t, "admin", "admin-pass")
	alice := fx.login(t, "alice", "alice-pass")

	body := map[string]string{"name": "Food", "categoryType": "food"}
	rec := fx.do(t, http.MethodPost, "/api/categories", alice, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = fx.do(t, http.MethodPost, "/api/categories", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decodeInto[types.Category](t, rec)
	assert.NotEmpty(t, category.ID)

	// Reads stay open to every authenticated user, and repeating them
	// leaves the stored tree untouched.
	first := fx.do(t, http.MethodGet, "/api/categories", alice, nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := fx.do(t, http.MethodGet, "/api/categories", alice, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec = fx.do(t, http.MethodDelete, "/api/categories/"+category.ID, alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = fx.do(t, http.MethodDelete, "/api/categories/"+category.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodDelete, "/api/categories/"+category.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaxonomyTreeLifecycle(t *testing.T) {
	fx := newAPIFixture(t)
	admin := fx.login(t, "admin", "admin-pass")

	rec := fx.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Food", "categoryType": "food"})
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decodeInto[types.Category](t, rec)

	rec = fx.do(t, http.MethodPost, "/api/categories/"+category.ID+"/items", admin, map[string]string{"name": "Breakfast"})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeInto[types.Item](t, rec)
	assert.Equal(t, types.ScaleWeight, item.ScaleType)

	rec = fx.do(t, http.MethodPost, "/api/categories/"+category.ID+"/items/"+item.ID+"/subitems", admin, map[string]string{"name": "Toast"})
	require.Equal(t, http.StatusCreated, rec.Code)
	sub := decodeInto[types.SubItem](t, rec)

	rec = fx.do(t, http.MethodPut, "/api/categories/"+category.ID+"/items/"+item.ID+"/subitems/"+sub.ID, admin, map[string]string{"name": "Rye Toast"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rye Toast", decodeInto[types.SubItem](t, rec).Name)

	rec = fx.do(t, http.MethodGet, "/api/categories", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeInto[handlers.CategoryListResponse](t, rec)
	require.Len(t, list.Categories, 1)
	require.Len(t, list.Categories[0].Items, 1)
	require.Len(t, list.Categories[0].Items[0].SubItems, 1)
	assert.Equal(t, "Rye Toast", list.Categories[0].Items[0].SubItems[0].Name)

	rec = fx.do(t, http.MethodPut, "/api/categories/"+category.ID+"/items/missing", admin, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntryLifecycle(t *testing.T) {
	fx := newAPIFixture(t)
	admin := fx.login(t, "admin", "admin-pass")
	alice := fx.login(t, "alice", "alice-pass")
	bob := fx.login(t, "bob", "bob-pass")

	rec := fx.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Mood", "categoryType": "self"})
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decodeInto[types.Category](t, rec)

	rec = fx.do(t, http.MethodPost, "/api/categories/"+category.ID+"/items", admin, map[string]string{"name": "Energy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeInto[types.Item](t, rec)

	// Client-supplied id, timestamp and owner are ignored.
	rec = fx.do(t, http.MethodPost, "/api/entries", alice, map[string]any{
		"id":         "spoofed",
		"timestamp":  "1999-01-01T00:00:00Z",
		"userId":     "someone-else",
		"categoryId": category.ID,
		"items":      []map[string]any{{"itemId": item.ID, "rating": 4}},
		"notes":      "slept well",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeInto[types.Entry](t, rec)
	assert.NotEqual(t, "spoofed", entry.ID)
	assert.NotEqual(t, "someone-else", entry.UserID)
	assert.True(t, entry.Timestamp.After(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "slept well", entry.Notes)

	rec = fx.do(t, http.MethodPost, "/api/entries", alice, map[string]any{
		"categoryId": category.ID,
		"items":      []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty items list is rejected")

	rec = fx.do(t, http.MethodPost, "/api/entries", alice, map[string]any{
		"categoryId": category.ID,
		"items":      []map[string]any{{"itemId": item.ID, "rating": 9}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "rating outside 1-5 is rejected")

	rec = fx.do(t, http.MethodGet, "/api/entries", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeInto[[]types.Entry](t, rec)
	require.Len(t, entries, 1, "default scope shows all entries to every user")

	// Only the owner or an admin may delete.
	rec = fx.do(t, http.MethodDelete, "/api/entries/"+entry.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = fx.do(t, http.MethodDelete, "/api/entries/"+entry.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodDelete, "/api/entries/"+entry.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeletesAnyEntry(t *testing.T) {
	fx := newAPIFixture(t)
	admin := fx.login(t, "admin", "admin-pass")
	alice := fx.login(t, "alice", "alice-pass")

	rec := fx.do(t, http.MethodPost, "/api/entries", alice, map[string]any{
		"categoryId": "freeform",
		"items":      []map[string]any{{"itemId": "i1", "rating": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeInto[types.Entry](t, rec)

	rec = fx.do(t, http.MethodDelete, "/api/entries/"+entry.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCorruptEntriesFileDoesNotCrash(t *testing.T) {
	fx := newAPIFixture(t)
	alice := fx.login(t, "alice", "alice-pass")

	// Touch the file first so the overwrite below is the only content.
	rec := fx.do(t, http.MethodGet, "/api/entries", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	path := filepath.Join(fx.dataDir, "entries.json")
	require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0o644))

	rec = fx.do(t, http.MethodGet, "/api/entries", alice, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The corrupt file must not be overwritten by a failed read.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{ not json", string(data))
}

func TestBackupEndpointWithoutBackend(t *testing.T) {
	fx := newAPIFixture(t)
	admin := fx.login(t, "admin", "admin-pass")
	alice := fx.login(t, "alice", "alice-pass")

	rec := fx.do(t, http.MethodPost, "/api/backups", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = fx.do(t, http.MethodPost, "/api/backups", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
