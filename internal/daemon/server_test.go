package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamingear/console/internal/config"
	"github.com/gamingear/console/internal/models"
)

type fakeAPI struct {
	mu          sync.Mutex
	signInBody  any
	signInCode  int
	lastCatalog *http.Request
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/sign-in":
		writeJSON(w, f.signInCode, f.signInBody)
	case "/api/sign-out":
		w.WriteHeader(http.StatusNoContent)
	case "/api/forgot-password":
		writeJSON(w, http.StatusOK, map[string]any{})
	case "/api/reset-password":
		if r.URL.Query().Get("token") != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "unexpected query"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	case "/api/products":
		f.lastCatalog = r.Clone(r.Context())
		if r.Header.Get("Authorization") != "Bearer t1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Keyboard"}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) respondToSignIn(code int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCode = code
	f.signInBody = body
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) (*Server, *gin.Engine, *fakeAPI) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := &fakeAPI{
		signInCode: http.StatusOK,
		signInBody: map[string]any{"token": "t1", "user": map[string]any{"id": 1, "userName": "a"}},
	}
	upstream := httptest.NewServer(remote)
	t.Cleanup(upstream.Close)

	cfg := config.DefaultConfig()
	cfg.SetAPIBaseURL(upstream.URL)
	cfg.Storage.Type = "memory"
	cfg.Server.Limits.AuthRate = 0

	for _, opt := range opts {
		opt(cfg)
	}

	manager, err := cfg.NewSessionManager()
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	server := NewServer(cfg, manager)
	t.Cleanup(server.Stop)
	return server, server.Router(), remote
}

func perform(router *gin.Engine, method string, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if len(body) > 0 {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

const credentials = `{"email":"admin@example.com","password":"secret"}`

func TestServer_SignInRedirectsToEntryPath(t *testing.T) {
	server, router, _ := newTestServer(t)

	w := perform(router, http.MethodPost, "/auth/sign-in", credentials)
	require.Equal(t, http.StatusOK, w.Code)

	result := decode[models.AuthResult](t, w)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "/home", result.Redirect)
	assert.Equal(t, "/home", server.Location.Current())

	w = perform(router, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	session := decode[models.SessionResponse](t, w)
	assert.True(t, session.Authenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, "a", session.User.UserName)
}

func TestServer_SignInWithRedirectParameter(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := perform(router, http.MethodPost, "/auth/sign-in?redirect=%2Fcatalog%2Fproducts", credentials)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/catalog/products", decode[models.AuthResult](t, w).Redirect)
}

func TestServer_GuardRemembersDestination(t *testing.T) {
	server, router, _ := newTestServer(t)

	w := perform(router, http.MethodGet, "/catalog/products", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in?redirect=%2Fcatalog%2Fproducts", w.Header().Get("Location"))
	assert.Equal(t, "/sign-in?redirect=%2Fcatalog%2Fproducts", server.Location.Current())

	w = perform(router, http.MethodGet, "/home", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in?redirect=%2Fhome", w.Header().Get("Location"))

	// the sign-in page itself stays reachable while signed out
	w = perform(router, http.MethodGet, "/sign-in?redirect=%2Fcatalog%2Fproducts", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.PageResponse](t, w)
	assert.Equal(t, "sign-in", page.Page)
	assert.Equal(t, "/catalog/products", page.Redirect)

	w = perform(router, http.MethodPost, "/auth/sign-in", credentials)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/catalog/products", decode[models.AuthResult](t, w).Redirect)

	w = perform(router, http.MethodGet, "/sign-in", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	w = perform(router, http.MethodGet, "/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	home := decode[models.PageResponse](t, w)
	assert.True(t, home.Authenticated)
	assert.Equal(t, "home", home.Page)
}

func TestServer_SignInFailures(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		remoteCode    int
		remoteBody    any
		expectCode    int
		expectMessage string
	}{
		{
			name:          "rejected credentials",
			body:          credentials,
			remoteCode:    http.StatusUnauthorized,
			remoteBody:    map[string]any{"message": "Invalid credentials"},
			expectCode:    http.StatusUnauthorized,
			expectMessage: "Invalid credentials",
		},
		{
			name:          "server error",
			body:          credentials,
			remoteCode:    http.StatusInternalServerError,
			remoteBody:    map[string]any{},
			expectCode:    http.StatusBadGateway,
			expectMessage: "Request failed with status code 500",
		},
		{
			name:          "missing token",
			body:          credentials,
			remoteCode:    http.StatusOK,
			remoteBody:    map[string]any{"user": map[string]any{"id": 1}},
			expectCode:    http.StatusBadGateway,
			expectMessage: "Unable to sign in",
		},
		{
			name:       "missing password",
			body:       `{"email":"admin@example.com"}`,
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router, remote := newTestServer(t)
			remote.respondToSignIn(tt.remoteCode, tt.remoteBody)

			w := perform(router, http.MethodPost, "/auth/sign-in", tt.body)
			assert.Equal(t, tt.expectCode, w.Code)

			result := decode[models.AuthResult](t, w)
			assert.False(t, result.Succeeded())
			assert.Empty(t, result.Redirect)
			if len(tt.expectMessage) > 0 {
				assert.Equal(t, tt.expectMessage, result.Message)
			}

			session := decode[models.SessionResponse](t, perform(router, http.MethodGet, "/auth/session", ""))
			assert.False(t, session.Authenticated)
		})
	}
}

func TestServer_SignOut(t *testing.T) {
	server, router, _ := newTestServer(t)

	perform(router, http.MethodPost, "/auth/sign-in", credentials)
	require.True(t, server.Manager.IsAuthenticated())

	w := perform(router, http.MethodPost, "/auth/sign-out", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/sign-in", decode[models.AuthResult](t, w).Redirect)
	assert.False(t, server.Manager.IsAuthenticated())
	assert.False(t, server.Manager.RefreshRunning())

	// signing out again only redirects
	w = perform(router, http.MethodPost, "/auth/sign-out", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/sign-in", decode[models.AuthResult](t, w).Redirect)
}

func TestServer_CatalogProxy(t *testing.T) {
	server, router, remote := newTestServer(t)
	perform(router, http.MethodPost, "/auth/sign-in", credentials)

	w := perform(router, http.MethodGet, "/catalog/products?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Keyboard")

	remote.mu.Lock()
	assert.Equal(t, "Bearer t1", remote.lastCatalog.Header.Get("Authorization"))
	assert.Equal(t, "2", remote.lastCatalog.URL.Query().Get("page"))
	assert.Equal(t, w.Header().Get(correlationHeader), remote.lastCatalog.Header.Get(correlationHeader))
	remote.mu.Unlock()
	assert.NotEmpty(t, w.Header().Get(correlationHeader))

	// a revoked token signs the session out
	remote.respondToSignIn(http.StatusOK, map[string]any{"token": "revoked"})
	perform(router, http.MethodPost, "/auth/sign-in", credentials)

	w = perform(router, http.MethodGet, "/catalog/products", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, server.Manager.IsAuthenticated())
	assert.Equal(t, "/sign-in", server.Location.Current())
}

func TestServer_OAuthCallback(t *testing.T) {
	t.Run("signs in", func(t *testing.T) {
		server, router, _ := newTestServer(t)

		w := perform(router, http.MethodGet, "/auth/oauth/callback?token=oauth-token&expiresIn=600", "")
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/home", w.Header().Get("Location"))
		assert.True(t, server.Manager.IsAuthenticated())
		assert.Equal(t, "oauth-token", server.Manager.Token())
	})

	t.Run("missing token", func(t *testing.T) {
		server, router, _ := newTestServer(t)

		w := perform(router, http.MethodGet, "/auth/oauth/callback", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, server.Manager.IsAuthenticated())
	})
}

func TestServer_PasswordFlows(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := perform(router, http.MethodPost, "/auth/forgot-password", `{"email":"admin@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.AuthResult](t, w).Succeeded())

	w = perform(router, http.MethodPost, "/auth/forgot-password", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodPost, "/auth/reset-password?token=abc", `{"password":"n3w"}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[models.AuthResult](t, w)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "/sign-in", result.Redirect)
}

func TestServer_HealthAndLogs(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := perform(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[models.HealthResponse](t, w)
	assert.Equal(t, models.HealthStatusHealthy, health.Status)
	assert.False(t, health.Authenticated)
	assert.NotEmpty(t, health.Version)
	assert.GreaterOrEqual(t, health.TotalRequests, int64(1))

	w = perform(router, http.MethodGet, "/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestLocation(t *testing.T) {
	location := NewLocation("/sign-in")
	assert.Equal(t, "/sign-in", location.Current())

	location.Navigate("/home")
	assert.Equal(t, "/home", location.Current())
}
