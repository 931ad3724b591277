package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aero-backend-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() services.TokenService {
	return services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "aero",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func authedRequest(t *testing.T, tokens services.TokenService, roles []string) *http.Request {
	t.Helper()
	access, _, err := tokens.CreateAccessToken("user-1", "jsmith", roles)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	return req
}

func TestWithAuthPopulatesContext(t *testing.T) {
	tokens := testTokens()
	var gotUser, gotName string
	var gotRoles []string
	handler := WithAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = CurrentUserID(r)
		gotName = CurrentUsername(r)
		gotRoles = CurrentRoles(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, tokens, []string{"TEACHER", "ADMIN"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "jsmith", gotName)
	assert.Equal(t, []string{"TEACHER", "ADMIN"}, gotRoles)
}

func TestWithAuthRejectsMissingHeader(t *testing.T) {
	handler := WithAuth(testTokens())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuthRejectsRefreshToken(t *testing.T) {
	tokens := testTokens()
	refresh, err := tokens.CreateRefreshToken("user-1")
	require.NoError(t, err)

	handler := WithAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := testTokens()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := WithAuth(tokens)(RequireRole("ADMIN")(next))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, tokens, []string{"ADMIN"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, tokens, []string{"TEACHER"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyRole(t *testing.T) {
	tokens := testTokens()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := WithAuth(tokens)(RequireAnyRole("TEACHER", "ADMIN")(next))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, tokens, []string{"ADMIN"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, tokens, []string{"STUDENT"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
