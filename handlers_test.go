package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphd/glyphd/internal/avatar"
	"github.com/glyphd/glyphd/internal/config"
	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/render"
	"github.com/glyphd/glyphd/internal/storage"
	"github.com/glyphd/glyphd/internal/testhelpers"
	"github.com/glyphd/glyphd/internal/theme"
)

const testIssuer = "https://issuer.glyphd.test/"

type testServer struct {
	handler http.Handler
	fs      afero.Fs
	key     *testhelpers.SigningKey
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key := testhelpers.NewSigningKey(t)
	cfg := config.Config{
		Authorization: config.AuthorizationConfig{
			Audience:            "glyphd",
			IssuerURL:           testIssuer,
			ConfigurationStatic: key.JWKS(t),
		},
		Avatar: config.AvatarConfig{MaxSize: 512},
	}

	fs := afero.NewMemMapFs()

	palette := theme.DefaultPalette()
	raster, err := render.NewRaster(palette)
	require.NoError(t, err)

	avatars := avatar.NewService(
		storage.NewDisk(fs, "/avatars"),
		identity.Static{},
		render.NewVector("", palette, nil),
		raster,
	)

	handler, err := configureServerRoutes(cfg, avatars)
	require.NoError(t, err)

	return &testServer{handler: handler, fs: fs, key: key}
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *testServer) authorized(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+s.key.Mint(t, testIssuer, "glyphd", "identity-service"))

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetAvatarGeneratesPNG(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/avatar/ada/64")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"), "expected PNG magic bytes")
}

func TestGetAvatarIsStableAcrossRequests(t *testing.T) {
	s := newTestServer(t)

	first := s.get("/avatar/ada/64")
	second := s.get("/avatar/ada/64")

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestGetAvatarDarkVariant(t *testing.T) {
	s := newTestServer(t)

	light := s.get("/avatar/ada/64")
	dark := s.get("/avatar/ada/64/dark")

	require.Equal(t, http.StatusOK, light.Code)
	require.Equal(t, http.StatusOK, dark.Code)
	assert.NotEqual(t, light.Body.Bytes(), dark.Body.Bytes())
}

func TestGetAvatarRejectsMalformedSize(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.get("/avatar/ada/huge").Code)
}

func TestGetAvatarRejectsOversizedRequest(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.get("/avatar/ada/4096").Code)
}

func TestGetAvatarInvalidSizeIsNotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.get("/avatar/ada/0").Code)
}

func TestGetAvatarNativeSizeMissIsNotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.get("/avatar/ada/-1").Code)
}

func TestDeleteAvatarRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/avatar/ada", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAvatarClearsCacheAndRegenerates(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.get("/avatar/ada/64").Code)

	exists, err := afero.Exists(s.fs, "/avatars/ada/avatar-placeholder.64.png")
	require.NoError(t, err)
	require.True(t, exists)

	rec := s.authorized(t, http.MethodDelete, "/avatar/ada", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	exists, err = afero.Exists(s.fs, "/avatars/ada/avatar-placeholder.64.png")
	require.NoError(t, err)
	assert.False(t, exists)

	// next request generates a fresh artifact
	assert.Equal(t, http.StatusOK, s.get("/avatar/ada/64").Code)
}

func TestDeleteAvatarEmptyCacheIsNoContent(t *testing.T) {
	s := newTestServer(t)

	rec := s.authorized(t, http.MethodDelete, "/avatar/nobody", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserChangedInvalidatesAvatars(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.get("/avatar/ada/64").Code)

	rec := s.authorized(t, http.MethodPost, "/user-changed",
		`{"user":"ada","feature":"displayName","oldValue":"Ada","newValue":"Ada King"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	exists, err := afero.Exists(s.fs, "/avatars/ada/avatar-placeholder.64.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserChangedRejectsMissingUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.authorized(t, http.MethodPost, "/user-changed", `{"feature":"displayName"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserChangedRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/user-changed", strings.NewReader(`{"user":"ada"}`))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/healthcheck")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
