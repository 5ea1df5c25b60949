package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/streamtube/internal/logger"
	"github.com/mpetrov/streamtube/internal/repository/postgres"
	"github.com/mpetrov/streamtube/internal/service/auth"
	"github.com/mpetrov/streamtube/internal/service/auth/tokenmanager"
	"github.com/mpetrov/streamtube/internal/service/user"
)

// fakeMediaStore returns deterministic URLs and never touches the network
type fakeMediaStore struct {
	mu       sync.Mutex
	prefixes []string
	err      error
}

func (f *fakeMediaStore) UploadFile(_ context.Context, localPath string, keyPrefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	f.prefixes = append(f.prefixes, keyPrefix)
	return "https://media.test/" + keyPrefix + "/" + filepath.Base(localPath), nil
}

type testEnv struct {
	server *httptest.Server
	media  *fakeMediaStore
}

func newTestEnv(t *testing.T, pool *pgxpool.Pool) testEnv {
	t.Helper()

	repo := &postgres.UserRepo{DB: pool}

	tm, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	})
	require.NoError(t, err)

	authService, err := auth.NewService(auth.Config{}, tm, repo)
	require.NoError(t, err)

	userService, err := user.NewService(repo)
	require.NoError(t, err)

	media := &fakeMediaStore{}

	handler := NewRouter(authService, userService, media, Config{
		Uploads: UploadConfig{TempDir: t.TempDir()},
	}, logger.NewNoOpLogger())

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return testEnv{server: server, media: media}
}

func (e testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) // nolint:errcheck
	return resp
}

func (e testEnv) postJSON(t *testing.T, path string, body any, modify ...func(*http.Request)) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	for _, m := range modify {
		m(req)
	}

	return e.do(t, req)
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(name string, value string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// multipartBody renders form fields plus named file parts with tiny payloads
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for field, filename := range files {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("file-content-of-" + filename))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func (e testEnv) postMultipart(t *testing.T, path string, fields map[string]string, files map[string]string, modify ...func(*http.Request)) *http.Response {
	t.Helper()

	body, contentType := multipartBody(t, fields, files)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	for _, m := range modify {
		m(req)
	}

	return e.do(t, req)
}

func (e testEnv) patchMultipart(t *testing.T, path string, files map[string]string, modify ...func(*http.Request)) *http.Response {
	t.Helper()

	body, contentType := multipartBody(t, nil, files)

	req, err := http.NewRequest(http.MethodPatch, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	for _, m := range modify {
		m(req)
	}

	return e.do(t, req)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func registerFields(suffix string) map[string]string {
	return map[string]string{
		"username": "user-" + suffix,
		"email":    "user-" + suffix + "@example.com",
		"fullName": "Test User " + suffix,
		"password": "long-enough-password",
	}
}

// registerUser drives the full register endpoint so follow-up subtests get a
// real persisted user
func (e testEnv) registerUser(t *testing.T, suffix string) map[string]string {
	t.Helper()

	fields := registerFields(suffix)
	resp := e.postMultipart(t, "/api/users/register", fields, map[string]string{"avatar": "avatar.png"})
	require.Equalf(t, http.StatusCreated, resp.StatusCode, "register should succeed for suffix %q", suffix)

	return fields
}

// loginUser logs the registered user in and returns both token values
func (e testEnv) loginUser(t *testing.T, fields map[string]string) (access string, refresh string) {
	t.Helper()

	resp := e.postJSON(t, "/api/users/login", map[string]string{
		"username": fields["username"],
		"password": fields["password"],
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login should succeed")

	body := decodeBody(t, resp)
	access, _ = body["accessToken"].(string)
	refresh, _ = body["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}
