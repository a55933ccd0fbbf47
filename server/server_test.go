package server_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-imagelite/auth"
	"github.com/goliatone/go-imagelite/config"
	"github.com/goliatone/go-imagelite/images"
	"github.com/goliatone/go-imagelite/persistence"
	"github.com/goliatone/go-imagelite/server"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type fixture struct {
	app    *fiber.App
	users  auth.Users
	tokens *auth.TokenService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWithLogger(t, nil)
}

func setupWithLogger(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.Open(ctx, persistence.Options{
		Driver: persistence.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, persistence.Migrate(ctx, db, (*auth.User)(nil), (*images.Image)(nil)))

	key, err := auth.NewKeyProvider().Key()
	require.NoError(t, err)

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokenService(key)

	cfg := config.Default()

	app := server.New(cfg, server.Dependencies{
		Users:  auth.NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		Tokens: tokens,
		Images: images.NewService(images.NewRepository(db)),
		Logger: logger,
	})

	return &fixture{app: app, users: users, tokens: tokens}
}

func (f *fixture) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	res, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func jsonRequest(method, target string, payload any) *http.Request {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func uploadRequest(t *testing.T, name, contentType string, data []byte, tags ...string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	require.NoError(t, w.WriteField("name", name))
	for _, tag := range tags {
		require.NoError(t, w.WriteField("tags", tag))
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()

	res, body := f.do(t, jsonRequest(http.MethodPost, "/v1/users/auth", map[string]string{
		"email":    email,
		"password": password,
	}))
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	var token auth.AccessToken
	require.NoError(t, json.Unmarshal(body, &token))
	require.NotEmpty(t, token.Token)
	return token.Token
}

func TestRegistrationAndAuthentication(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, _ := f.do(t, jsonRequest(http.MethodPost, "/v1/users", map[string]string{
		"name":     "A",
		"email":    "a@x.com",
		"password": "secret",
	}))
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	stored, err := f.users.FindByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret", stored.PasswordHash)

	token := f.login(t, "a@x.com", "secret")
	subject, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	res, wrongPassword := f.do(t, jsonRequest(http.MethodPost, "/v1/users/auth", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, unknownUser := f.do(t, jsonRequest(http.MethodPost, "/v1/users/auth", map[string]string{
		"email": "nobody@x.com", "password": "secret",
	}))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, string(wrongPassword), string(unknownUser))

	res, body := f.do(t, jsonRequest(http.MethodPost, "/v1/users", map[string]string{
		"name": "B", "email": "a@x.com", "password": "other",
	}))
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.JSONEq(t, `{"error":"user already exists"}`, string(body))
}

func TestRegistrationValidation(t *testing.T) {
	f := setup(t)

	res, body := f.do(t, jsonRequest(http.MethodPost, "/v1/users", map[string]string{
		"name": "A", "email": "  ", "password": "",
	}))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "invalid input", payload.Error)
	assert.Contains(t, payload.Fields, "email")
	assert.Contains(t, payload.Fields, "password")

	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	res, _ = f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestProtectedRoutes(t *testing.T) {
	f := setup(t)

	res, body := f.do(t, uploadRequest(t, "Kitten", "image/png", pngBytes))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.JSONEq(t, `{"error":"unauthorized"}`, string(body))

	req := uploadRequest(t, "Kitten", "image/png", pngBytes)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.token")
	res, forged := f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, string(body), string(forged))

	res, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/somewhere-else", nil))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestTokenForDeletedAccountIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, _ := f.do(t, jsonRequest(http.MethodPost, "/v1/users", map[string]string{
		"name": "A", "email": "a@x.com", "password": "secret",
	}))
	require.Equal(t, http.StatusCreated, res.StatusCode)

	token := f.login(t, "a@x.com", "secret")
	require.NoError(t, f.users.Delete(ctx, "a@x.com"))

	req := uploadRequest(t, "Kitten", "image/png", pngBytes)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	res, _ = f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestImageLifecycle(t *testing.T) {
	f := setup(t)

	res, _ := f.do(t, jsonRequest(http.MethodPost, "/v1/users", map[string]string{
		"name": "A", "email": "a@x.com", "password": "secret",
	}))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	token := f.login(t, "a@x.com", "secret")

	req := uploadRequest(t, "Kitten", "image/png", pngBytes, "cat", "cute")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	res, body := f.do(t, req)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	location := res.Header.Get(fiber.HeaderLocation)
	require.Contains(t, location, "/v1/images/")
	id := location[strings.LastIndex(location, "/")+1:]
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	t.Run("retrieve without token", func(t *testing.T) {
		res, body := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images/"+id, nil))
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "image/png", res.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, `inline; filename="Kitten.png"`, res.Header.Get(fiber.HeaderContentDisposition))
		assert.Equal(t, pngBytes, body)
	})

	t.Run("search without token", func(t *testing.T) {
		res, body := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images?extension=png&query=cat", nil))
		require.Equal(t, http.StatusOK, res.StatusCode)

		var records []server.ImageRecord
		require.NoError(t, json.Unmarshal(body, &records))
		require.Len(t, records, 1)
		assert.Equal(t, "Kitten", records[0].Name)
		assert.Equal(t, images.PNG, records[0].Extension)
		assert.EqualValues(t, len(pngBytes), records[0].Size)
		assert.True(t, strings.HasSuffix(records[0].URL, "/v1/images/"+id))

		res, body = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images?extension=gif", nil))
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.JSONEq(t, `[]`, string(body))
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		res, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, res.StatusCode)

		res, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unsupported upload", func(t *testing.T) {
		req := uploadRequest(t, "notes", "text/plain", []byte("just text"))
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		res, _ := f.do(t, req)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestRequestIDHeader(t *testing.T) {
	f := setup(t)

	res, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images", nil))
	assert.NotEmpty(t, res.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/v1/images", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	res, _ = f.do(t, req)
	assert.Equal(t, "abc-123", res.Header.Get(fiber.HeaderXRequestID))
}

func TestPublicRoutesIgnorePathCase(t *testing.T) {
	f := setup(t)

	res, _ := f.do(t, jsonRequest(http.MethodPost, "/V1/Users", map[string]string{
		"email": "n@x.com", "password": "secret",
	}))
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, body := f.do(t, jsonRequest(http.MethodPost, "/V1/USERS/AUTH", map[string]string{
		"email": "n@x.com", "password": "secret",
	}))
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	var token auth.AccessToken
	require.NoError(t, json.Unmarshal(body, &token))

	parts := strings.Split(token.Token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	assert.Contains(t, claims, "name")
	assert.Equal(t, "n@x.com", claims["sub"])

	res, body = f.do(t, httptest.NewRequest(http.MethodGet, "/V1/Images", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	res, _ = f.do(t, uploadRequest(t, "Kitten", "image/png", pngBytes))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	req := uploadRequest(t, "Kitten", "image/png", pngBytes)
	req.URL.Path = "/V1/IMAGES"
	res, _ = f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRecoveredPanicIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := setupWithLogger(t, zap.New(core))

	f.app.Get("/v1/images/x/panic", func(c *fiber.Ctx) error {
		panic("handler blew up")
	})

	res, body := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/images/x/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))

	entries := logs.FilterMessage("request").FilterField(zap.Int("status", http.StatusInternalServerError)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "/v1/images/x/panic", entries[0].ContextMap()["path"])
}
