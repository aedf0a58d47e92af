package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer assembles a full server against an in-memory database and a
// throwaway upload directory, so these tests exercise the real router,
// middleware chain, handlers, services, and SQLite store together.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := New(Config{
		Port:       0,
		DBPath:     ":memory:",
		UploadDir:  t.TempDir(),
		JWTSecret:  "test-secret-at-least-16-chars!!",
		CORSOrigin: "http://localhost:3000",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.db.Close() })

	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates an account and returns a usable bearer token.
func registerAndLogin(t *testing.T, srv *Server, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"s3cret"}`, email)
	rec := doJSON(t, srv, http.MethodPost, "/api/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// =========================================================================
// AUTH FLOW
// =========================================================================

func TestRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)

	// Register issues a token right away.
	token := registerAndLogin(t, srv, "ana@example.com")

	// Login with the same credentials issues another.
	rec := doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"ana@example.com","password":"s3cret"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loginToken, _ := decodeBody(t, rec)["token"].(string)
	assert.NotEmpty(t, loginToken)

	// /api/me works with either token and applies the profile defaults.
	rec = doJSON(t, srv, http.MethodGet, "/api/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decodeBody(t, rec)
	assert.Equal(t, "ana@example.com", profile["email"])
	assert.Equal(t, "ana", profile["name"]) // local part of the email
	assert.Equal(t, "No recent posts", profile["lastPost"])
	assert.Nil(t, profile["avatarUrl"])
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "ana@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/register", `{"email":"ana@example.com","password":"other"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["error"])
}

func TestRegister_MissingFields(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{
		`{"email":"","password":"x"}`,
		`{"email":"a@b.c","password":""}`,
		`not json`,
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestLogin_Failures(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "ana@example.com")

	// Wrong password and unknown user both come back 401, with the
	// distinct messages the frontend displays.
	rec := doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"ana@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "wrong password", decodeBody(t, rec)["message"])

	rec = doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"ghost@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "user not found", decodeBody(t, rec)["message"])

	// Missing fields are a 400, not a 401.
	rec = doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"","password":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/me", "", "garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =========================================================================
// CATALOG FLOW
// =========================================================================

// productForm builds the multipart body the storefront's FormData produces.
func productForm(t *testing.T, fields map[string]string, imageName string, imageBytes []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func createProduct(t *testing.T, srv *Server, token string, fields map[string]string, imageName string, imageBytes []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := productForm(t, fields, imageName, imageBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestProducts_EmptyList(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestProducts_CreateRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := createProduct(t, srv, "", map[string]string{
		"nombre_juego": "Game A", "precio": "9.99", "id_plataforma": "1",
	}, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProducts_CreateAndGetRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "seller@example.com")

	rec := createProduct(t, srv, token, map[string]string{
		"nombre_juego":  "Game A",
		"descripcion":   "A fine game",
		"precio":        "9.99",
		"id_plataforma": "1",
		"usado":         "false",
	}, "cover.png", []byte("fake png bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	// Price must be a JSON number, never a string.
	price, ok := created["price"].(float64)
	require.True(t, ok, "price = %T(%v), want JSON number", created["price"], created["price"])
	assert.Equal(t, 9.99, price)

	imageURL, _ := created["imageurl"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"), "imageurl = %q", imageURL)

	// The uploaded image is served back from /uploads.
	rec2 := doJSON(t, srv, http.MethodGet, imageURL, "", "")
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "fake png bytes", rec2.Body.String())

	// Detail view: same fields plus exactly one platform association.
	id := int64(created["id"].(float64))
	rec3 := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", "")
	require.Equal(t, http.StatusOK, rec3.Code)

	detail := decodeBody(t, rec3)
	assert.Equal(t, "Game A", detail["name"])
	assert.Equal(t, 9.99, detail["price"])

	// No video: the detail body still carries the key, explicitly null.
	videoURL, present := detail["videourl"]
	require.True(t, present, "detail body must always contain videourl")
	assert.Nil(t, videoURL)

	platforms, ok := detail["platforms"].([]any)
	require.True(t, ok)
	require.Len(t, platforms, 1)
	platform := platforms[0].(map[string]any)
	assert.Equal(t, float64(1), platform["id"])
	assert.Equal(t, false, platform["used"])
	assert.NotEmpty(t, platform["name"])
}

func TestProducts_CreateValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "seller@example.com")

	// No platform id → 400, and nothing may have been inserted.
	rec := createProduct(t, srv, token, map[string]string{
		"nombre_juego": "Game A", "precio": "9.99",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestProducts_ListGrows(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "seller@example.com")

	for i := 0; i < 3; i++ {
		rec := createProduct(t, srv, token, map[string]string{
			"nombre_juego":  fmt.Sprintf("Game %d", i),
			"precio":        "19.99",
			"id_plataforma": "1",
		}, "", nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 3)

	// List rows carry no videourl key at all — only the detail view does.
	_, present := products[0]["videourl"]
	assert.False(t, present, "list rows must omit videourl")
}

func TestProducts_GetUnknown(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/products/99999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])

	rec = doJSON(t, srv, http.MethodGet, "/api/products/not-a-number", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
