package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/coe-portal/app"
	"github.com/upb/coe-portal/config"
	"github.com/upb/coe-portal/session"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestApp(t)
	return srv
}

func newTestApp(t *testing.T) (*httptest.Server, *app.Dependencies) {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port:               8080,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
		},
		Session: config.SessionConfig{
			Secret:          "routes-secret",
			CookieName:      "portal_session",
			Store:           config.SessionStoreMemory,
			MaxEntries:      100,
			CleanupInterval: time.Minute,
		},
		Portal:        config.PortalConfig{LoginPath: "/login", FallbackPath: "/"},
		Observability: config.ObservabilityConfig{LogLevel: "error"},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(func() {
		srv.Close()
		_ = deps.Close(context.Background())
	})
	return srv, deps
}

// browser is an HTTP client that keeps cookies and does not follow redirects
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) post(path, body string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Post(b.base+path, "application/json", strings.NewReader(body))
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// sessionID returns the id carried by the browser's session cookie
func (b *browser) sessionID(codec *session.CookieCodec) string {
	b.t.Helper()
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)

	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == "portal_session" {
			id, err := codec.Decode(c.Value)
			require.NoError(b.t, err)
			return id
		}
	}
	b.t.Fatal("no session cookie")
	return ""
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealthEndpoints(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	assert.Equal(t, http.StatusOK, b.get("/healthz").StatusCode)
	assert.Equal(t, http.StatusOK, b.get("/readyz").StatusCode)
}

func TestStudentCannotOpenAdminDashboard(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	resp := b.post("/auth/login", `{"email":"STUDENT@jain.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Success  bool   `json:"success"`
		Redirect string `json:"redirect"`
		User     struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, resp, &login)
	assert.True(t, login.Success)
	assert.Equal(t, "STUDENT", login.User.Role)
	assert.Equal(t, "/student", login.Redirect)

	resp = b.get("/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = b.get("/student")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.get("/student/courses")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStudentLoginGateLogoutAgainstStore(t *testing.T) {
	srv, deps := newTestApp(t)
	b := newBrowser(t, srv)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, b.get("/auth/session").StatusCode)
	anonymousID := b.sessionID(deps.Codec)

	resp := b.post("/auth/login", `{"email":"STUDENT@jain.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loggedInID := b.sessionID(deps.Codec)
	assert.NotEqual(t, anonymousID, loggedInID)

	raw, found, err := deps.SessionStore.Scope(loggedInID).GetItem(ctx, session.StorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, `"role":"STUDENT"`)

	_, found, err = deps.SessionStore.Scope(anonymousID).GetItem(ctx, session.StorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	resp = b.get("/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = b.post("/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, found, err = deps.SessionStore.Scope(loggedInID).GetItem(ctx, session.StorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	resp = b.get("/student")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestPreLoginCookieIsDeadAfterLogin(t *testing.T) {
	srv, deps := newTestApp(t)
	attacker := newBrowser(t, srv)
	require.Equal(t, http.StatusOK, attacker.get("/auth/session").StatusCode)
	plantedID := attacker.sessionID(deps.Codec)

	victim := newBrowser(t, srv)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	planted, err := deps.Codec.Encode(plantedID)
	require.NoError(t, err)
	victim.client.Jar.SetCookies(u, []*http.Cookie{{Name: "portal_session", Value: planted, Path: "/"}})

	require.Equal(t, http.StatusOK, victim.post("/auth/login", `{"email":"admin@jain.com"}`).StatusCode)
	assert.NotEqual(t, plantedID, victim.sessionID(deps.Codec))
	assert.Equal(t, http.StatusOK, victim.get("/admin").StatusCode)

	resp := attacker.get("/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	for _, path := range []string{"/admin", "/admin/accounts", "/faculty", "/student/courses"} {
		resp := b.get(path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	assert.Equal(t, http.StatusOK, b.get("/login").StatusCode)
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	resp := b.post("/auth/login", `{"email":"nobody@jain.com"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = b.post("/auth/login", `{"email":"admin@jain.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		Authenticated bool   `json:"authenticated"`
		Role          string `json:"role"`
	}
	decode(t, b.get("/auth/session"), &session)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "ADMIN", session.Role)

	resp = b.get("/admin/accounts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.get("/admin/accounts/student@jain.com")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.get("/admin/accounts/ghost@jain.com")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = b.post("/auth/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	decode(t, b.get("/auth/session"), &session)
	assert.False(t, session.Authenticated)
	assert.Equal(t, "GUEST", session.Role)

	resp = b.get("/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestSessionsAreIsolatedPerBrowser(t *testing.T) {
	srv := newTestServer(t)
	faculty := newBrowser(t, srv)
	other := newBrowser(t, srv)

	require.Equal(t, http.StatusOK, faculty.post("/auth/login", `{"email":"faculty@jain.com"}`).StatusCode)

	assert.Equal(t, http.StatusOK, faculty.get("/faculty").StatusCode)
	assert.Equal(t, http.StatusFound, other.get("/faculty").StatusCode)
}

func TestLayoutFollowsRole(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	var layout struct {
		Data struct {
			Role string `json:"role"`
			Home string `json:"home"`
			Menu []struct {
				Path string `json:"path"`
			} `json:"menu"`
		} `json:"data"`
	}

	decode(t, b.get("/api/v1/layout"), &layout)
	assert.Equal(t, "GUEST", layout.Data.Role)

	require.Equal(t, http.StatusOK, b.post("/auth/login", `{"email":"faculty@jain.com"}`).StatusCode)

	decode(t, b.get("/api/v1/layout"), &layout)
	assert.Equal(t, "FACULTY", layout.Data.Role)
	assert.Equal(t, "/faculty", layout.Data.Home)
	assert.Equal(t, "/faculty", layout.Data.Menu[0].Path)

	var screens struct {
		Data struct {
			Authenticated bool `json:"authenticated"`
		} `json:"data"`
	}
	decode(t, b.get("/api/v1/navigation/screens"), &screens)
	assert.True(t, screens.Data.Authenticated)
}

func TestMalformedLoginBody(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	resp := b.post("/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	resp := b.get("/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
