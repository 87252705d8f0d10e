// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the auth middleware

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *identity.Claims
	err    error
	seen   string
}

func (f *fakeVerifier) Verify(_ context.Context, credential string) (*identity.Claims, error) {
	f.seen = credential
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func newAuthRouter(v identity.Verifier) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(v))
	router.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	v := &fakeVerifier{claims: &identity.Claims{Subject: "uid-1", Email: "s@example.com"}}
	router := newAuthRouter(v)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good-token", v.seen)
	assert.Contains(t, w.Body.String(), "uid-1")
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	v := &fakeVerifier{err: identity.ErrUnauthenticated}
	router := newAuthRouter(v)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	v := &fakeVerifier{err: identity.ErrUnauthenticated}
	router := newAuthRouter(v)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "", v.seen)
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer ABC123", "ABC123"},
		{"wrong scheme", "Token abc", ""},
		{"no token", "Bearer", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request, _ = http.NewRequest("GET", "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, extractBearerToken(c))
		})
	}
}
