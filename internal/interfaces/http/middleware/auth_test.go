package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/auth"
)

type stubVerifier map[string]identity.Actor

func (s stubVerifier) VerifyActor(raw string) (identity.Actor, error) {
	switch raw {
	case "":
		return identity.Actor{}, auth.ErrMissingToken
	case "expired":
		return identity.Actor{}, auth.ErrExpiredToken
	}
	if a, ok := s[raw]; ok {
		return a, nil
	}
	return identity.Actor{}, errors.Join(auth.ErrInvalidToken, errors.New("bad signature"))
}

var testVerifier = stubVerifier{
	"admin":  {UserID: "u_admin", OrgID: "org_1", OrgRole: identity.OrgRoleAdmin},
	"member": {UserID: "u_member", PersonalRole: identity.RoleMember},
	"viewer": {UserID: "u_viewer"},
}

func authRouter(cfg SessionAuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{SessionAuth(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := GetActor(c)
		c.String(http.StatusOK, actor.UserID)
	})
	router.GET("/api/tasks", handlers...)
	return router
}

func TestSessionAuth(t *testing.T) {
	router := authRouter(SessionAuthConfig{Verifier: testVerifier})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid bearer", "Bearer member", http.StatusOK, "u_member"},
		{"lowercase scheme", "bearer admin", http.StatusOK, "u_admin"},
		{"missing header", "", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"wrong scheme", "Basic member", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "ERR_TOKEN_EXPIRED"},
		{"invalid", "Bearer forged", http.StatusUnauthorized, "ERR_TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestSessionAuth_QueryToken(t *testing.T) {
	req := func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/tasks?token=member", nil) }

	w := httptest.NewRecorder()
	authRouter(SessionAuthConfig{Verifier: testVerifier}).ServeHTTP(w, req())
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query token is ignored unless enabled")

	w = httptest.NewRecorder()
	authRouter(SessionAuthConfig{Verifier: testVerifier, AllowQueryToken: true}).ServeHTTP(w, req())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u_member", w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	router := authRouter(SessionAuthConfig{Verifier: testVerifier}, RequireAdmin())

	for token, want := range map[string]int{
		"admin":  http.StatusOK,
		"member": http.StatusForbidden,
		"viewer": http.StatusForbidden,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRole(identity.RoleMember), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
