// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Routing tests wiring the full table with test doubles

package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/generation"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/identity"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, credential string) (*identity.Claims, error) {
	if credential != "valid-token" {
		return nil, identity.ErrUnauthenticated
	}
	return &identity.Claims{Subject: "uid-1", Email: "s@example.com"}, nil
}

type stubStore struct {
	getOrCreateCalls int
}

func (s *stubStore) GetOrCreate(_ context.Context, subjectID, email string) (*datatypes.User, error) {
	s.getOrCreateCalls++
	return &datatypes.User{SubjectID: subjectID, Email: email, TokensRemaining: datatypes.DefaultTokens}, nil
}

func (s *stubStore) DecrementTokens(context.Context, string) (*datatypes.User, error) {
	return nil, store.ErrInsufficientTokens
}

func (s *stubStore) SetTokens(_ context.Context, subjectID string, value int) (*datatypes.User, error) {
	return &datatypes.User{SubjectID: subjectID, TokensRemaining: value}, nil
}

func (s *stubStore) Append(context.Context, *datatypes.HistoryEntry) error { return nil }

func (s *stubStore) Recent(context.Context, string, int) ([]datatypes.HistoryEntry, error) {
	return []datatypes.HistoryEntry{}, nil
}

func (s *stubStore) CommitGeneration(context.Context, *datatypes.HistoryEntry) (*datatypes.User, error) {
	return nil, fmt.Errorf("not expected in routing tests")
}

type stubGenerator struct{ calls int }

func (g *stubGenerator) Generate(context.Context, string, string, generation.Request) (*generation.Result, error) {
	g.calls++
	return &generation.Result{Data: []byte("img"), MIMEType: "image/png"}, nil
}

type stubArtifacts struct{}

func (stubArtifacts) Upload(context.Context, string, []byte, string) (string, error) {
	return "", fmt.Errorf("not expected in routing tests")
}

func (stubArtifacts) AllowedHosts() []string { return []string{"storage.googleapis.com"} }

type stubFiler struct{}

func (stubFiler) FileIssue(context.Context, string, string) (string, error) {
	return "https://github.com/AleutianAI/AleutianCanvas/issues/1", nil
}

func newTestRouter(st *stubStore, gen *stubGenerator) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, Deps{
		Verifier:  stubVerifier{},
		Store:     st,
		Generator: gen,
		Artifacts: stubArtifacts{},
		Filer:     stubFiler{},
		Model:     "test-model",
	})
	return router
}

func TestRoutes_HealthIsPublic(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubGenerator{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_ProtectedEndpointsRequireAuth(t *testing.T) {
	st := &stubStore{}
	gen := &stubGenerator{}
	router := newTestRouter(st, gen)

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/users/me"},
		{"POST", "/generate/notes"},
		{"POST", "/generate/translation"},
		{"POST", "/feedback"},
		{"POST", "/admin/set-tokens/5"},
	}
	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(ep.method, ep.path, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	// An unauthenticated caller must trigger no store or provider work.
	assert.Equal(t, 0, st.getOrCreateCalls)
	assert.Equal(t, 0, gen.calls)
}

func TestRoutes_AuthedGenerateFlows(t *testing.T) {
	gen := &stubGenerator{}
	router := newTestRouter(&stubStore{}, gen)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/generate/notes", strings.NewReader(`{"text":"osmosis"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestRoutes_MeReturnsProfile(t *testing.T) {
	st := &stubStore{}
	router := newTestRouter(st, &stubGenerator{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, st.getOrCreateCalls)
	assert.Contains(t, w.Body.String(), "uid-1")
}
