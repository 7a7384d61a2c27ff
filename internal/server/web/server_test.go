package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/blob"
	"github.com/dkravets/irisvault/internal/server/convert"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/gate"
	"github.com/dkravets/irisvault/internal/server/matcher"
	"github.com/dkravets/irisvault/internal/server/render"
	"github.com/dkravets/irisvault/internal/server/session"
	"github.com/dkravets/irisvault/internal/server/vault"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, src, outdir string) (string, error) {
	base := filepath.Base(src)
	dst := filepath.Join(outdir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if err := os.WriteFile(dst, []byte("%PDF-1.4"), 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

type testEnv struct {
	server *Server
	store  *directory.Store
	exited bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	store, err := directory.NewStore(ctx, directory.NewFileRepository(filepath.Join(t.TempDir(), "users.json")), logger)
	require.NoError(t, err)
	blobs, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	v := vault.New(blobs, store, logger)

	g, err := gate.New(store, v, matcher.NewFilename(), "admin123", "admin_iris.jpg", logger)
	require.NoError(t, err)

	scratch, err := convert.NewScratch(filepath.Join(t.TempDir(), "scratch"), time.Hour, logger)
	require.NoError(t, err)
	pipeline := render.NewPipeline(v, stubConverter{}, scratch, logger)

	env := &testEnv{store: store}
	env.server = NewServer(Options{
		Sessions:        session.NewManager("test-secret", time.Hour),
		Gate:            g,
		Dir:             store,
		Vault:           v,
		Pipeline:        pipeline,
		Scratch:         scratch,
		Logger:          logger,
		MaxUploadBytes:  10 * 1024 * 1024,
		SessionValidity: time.Hour,
		Shutdown:        func() { env.exited = true },
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.server.App().Test(req, 5000)
	require.NoError(t, err)
	return resp
}

// multipartBody builds a form with string fields plus one file part.
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = io.WriteString(part, fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func sessionCookieOf(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" {
			return ck
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (e *testEnv) loginAdmin(t *testing.T) *http.Cookie {
	t.Helper()
	body, ctype := multipartBody(t, map[string]string{"password": "admin123"}, "iris", "admin_iris.jpg", "img")
	req := httptest.NewRequest(http.MethodPost, "/admin_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := e.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin_dashboard", resp.Header.Get("Location"))
	return sessionCookieOf(t, resp)
}

func (e *testEnv) addUser(t *testing.T, admin *http.Cookie, displayName, username, irisName string) {
	t.Helper()
	body, ctype := multipartBody(t, map[string]string{"display_name": displayName, "username": username}, "iris", irisName, "img")
	req := httptest.NewRequest(http.MethodPost, "/add_user", body)
	req.Header.Set("Content-Type", ctype)
	req.AddCookie(admin)
	resp := e.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin_dashboard", resp.Header.Get("Location"))
}

func (e *testEnv) loginUser(t *testing.T, username, irisName string) *http.Cookie {
	t.Helper()
	body, ctype := multipartBody(t, map[string]string{"username": username}, "iris", irisName, "img")
	req := httptest.NewRequest(http.MethodPost, "/user_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := e.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/user_dashboard", resp.Header.Get("Location"))
	return sessionCookieOf(t, resp)
}

func (e *testEnv) upload(t *testing.T, user *http.Cookie, name, content string) {
	t.Helper()
	body, ctype := multipartBody(t, nil, "file", name, content)
	req := httptest.NewRequest(http.MethodPost, "/user_upload_file", body)
	req.Header.Set("Content-Type", ctype)
	req.AddCookie(user)
	resp := e.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/user_dashboard", resp.Header.Get("Location"))
}

func TestAnonymousRedirectsToEntryPoint(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/admin_dashboard",
		"/user_dashboard",
		"/view/report.pdf",
		"/inline-pdf/report.pdf",
		"/inline-img/photo.png",
		"/delete_file/report.pdf",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := env.do(t, req)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/", resp.Header.Get("Location"), target)
	}
}

func TestAdminLoginWrongSecret(t *testing.T) {
	env := newTestEnv(t)

	body, ctype := multipartBody(t, map[string]string{"password": "nope"}, "iris", "admin_iris.jpg", "img")
	req := httptest.NewRequest(http.MethodPost, "/admin_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := env.do(t, req)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin_login", resp.Header.Get("Location"))
}

func TestAdminLoginMissingImage(t *testing.T) {
	env := newTestEnv(t)

	body, ctype := multipartBody(t, map[string]string{"password": "admin123"}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/admin_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := env.do(t, req)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin_login", resp.Header.Get("Location"))
}

func TestAdminProvisionsAndUserLogsIn(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")

	account, err := env.store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice A", account.DisplayName)
	assert.Empty(t, account.Files)

	user := env.loginUser(t, "alice", "alice_iris.jpg")

	req := httptest.NewRequest(http.MethodGet, "/user_dashboard", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Alice A")
}

func TestUserLoginWrongImage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")

	body, ctype := multipartBody(t, map[string]string{"username": "alice"}, "iris", "other.jpg", "img")
	req := httptest.NewRequest(http.MethodPost, "/user_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := env.do(t, req)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user_login", resp.Header.Get("Location"))
}

func TestUserLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	body, ctype := multipartBody(t, map[string]string{"username": "ghost"}, "iris", "ghost.jpg", "img")
	req := httptest.NewRequest(http.MethodPost, "/user_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := env.do(t, req)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user_login", resp.Header.Get("Location"))
}

func TestWrongRoleRedirects(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	req := httptest.NewRequest(http.MethodGet, "/admin_dashboard", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestUploadListViewDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	env.upload(t, user, "report.pdf", "%PDF-1.4 content")

	account, err := env.store.Get("alice")
	require.NoError(t, err)
	require.Len(t, account.Files, 1)
	assert.Equal(t, "report.pdf", account.Files[0].Name)
	assert.Equal(t, int64(len("%PDF-1.4 content")), account.Files[0].SizeBytes)

	req := httptest.NewRequest(http.MethodGet, "/view/report.pdf", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "/inline-pdf/report.pdf")

	req = httptest.NewRequest(http.MethodGet, "/inline-pdf/report.pdf", nil)
	req.AddCookie(user)
	resp = env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4 content", string(raw))

	req = httptest.NewRequest(http.MethodGet, "/delete_file/report.pdf", nil)
	req.AddCookie(user)
	resp = env.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user_dashboard", resp.Header.Get("Location"))

	account, err = env.store.Get("alice")
	require.NoError(t, err)
	assert.Empty(t, account.Files)
}

func TestViewDocxConvertsAndStreamsArtifact(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	env.upload(t, user, "notes.docx", "doc bytes")

	req := httptest.NewRequest(http.MethodGet, "/view/notes.docx", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, _ := io.ReadAll(resp.Body)
	marker := "/inline-pdf/"
	idx := strings.Index(string(page), marker)
	require.GreaterOrEqual(t, idx, 0)
	rest := string(page)[idx+len(marker):]
	artifact := rest[:strings.IndexByte(rest, '"')]
	assert.True(t, strings.HasSuffix(artifact, ".pdf"))
	assert.NotEqual(t, "notes.pdf", artifact)

	req = httptest.NewRequest(http.MethodGet, "/inline-pdf/"+artifact, nil)
	req.AddCookie(user)
	resp = env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4", string(raw))
}

func TestViewImage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	env.upload(t, user, "photo.png", "png bytes")

	req := httptest.NewRequest(http.MethodGet, "/view/photo.png", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "/inline-img/photo.png")

	req = httptest.NewRequest(http.MethodGet, "/inline-img/photo.png", nil)
	req.AddCookie(user)
	resp = env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestViewUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	env.upload(t, user, "notes.txt", "plain text")

	req := httptest.NewRequest(http.MethodGet, "/view/notes.txt", nil)
	req.AddCookie(user)
	resp := env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/user_dashboard", resp.Header.Get("Location"))
}

func TestCrossAccountIsolation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	env.addUser(t, admin, "Bob B", "bob", "bob_iris.jpg")

	alice := env.loginUser(t, "alice", "alice_iris.jpg")
	bob := env.loginUser(t, "bob", "bob_iris.jpg")

	env.upload(t, alice, "report.pdf", "alice data")
	env.upload(t, bob, "report.pdf", "bob data")

	req := httptest.NewRequest(http.MethodGet, "/inline-pdf/report.pdf", nil)
	req.AddCookie(alice)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice data", string(raw))
}

func TestDanglingSessionTreatedAsLoggedOut(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	user := env.loginUser(t, "alice", "alice_iris.jpg")

	body, ctype := multipartBody(t, map[string]string{"username": "alice"}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/delete_user", body)
	req.Header.Set("Content-Type", ctype)
	req.AddCookie(admin)
	resp := env.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/user_dashboard", nil)
	req.AddCookie(user)
	resp = env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestDuplicateUsernameRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)
	env.addUser(t, admin, "Alice A", "alice", "alice_iris.jpg")
	env.addUser(t, admin, "Impostor", "alice", "other.jpg")

	account, err := env.store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice A", account.DisplayName)
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAdmin(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(admin)
	resp := env.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/admin_dashboard", nil)
	req.AddCookie(admin)
	resp = env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestExitInvokesShutdownHook(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/exit", nil)
	resp := env.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.exited)
}

func TestFlashNoticeShownOnce(t *testing.T) {
	env := newTestEnv(t)

	body, ctype := multipartBody(t, map[string]string{"password": "wrong"}, "iris", "admin_iris.jpg", "img")
	req := httptest.NewRequest(http.MethodPost, "/admin_login", body)
	req.Header.Set("Content-Type", ctype)
	resp := env.do(t, req)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var notice *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == flashCookie && ck.Value != "" {
			notice = ck
		}
	}
	require.NotNil(t, notice)

	req = httptest.NewRequest(http.MethodGet, "/admin_login", nil)
	req.AddCookie(notice)
	resp = env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Authentication failed!")
}
