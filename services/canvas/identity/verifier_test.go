// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for Firebase ID token verification against a mock JWKS.

package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testProjectID = "canvas-test"

func TestVerifyValidToken(t *testing.T) {
	verifier, key := newTestVerifier(t)
	tokenString := signToken(t, key, "test-key", jwt.MapClaims{
		"iss":   verifier.issuer,
		"aud":   testProjectID,
		"sub":   "firebase-uid-123",
		"email": "student@example.com",
		"exp":   time.Now().Add(10 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
	})

	claims, err := verifier.Verify(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != "firebase-uid-123" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Email != "student@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	verifier, key := newTestVerifier(t)
	tokenString := signToken(t, key, "test-key", jwt.MapClaims{
		"iss": verifier.issuer,
		"aud": testProjectID,
		"sub": "firebase-uid-123",
		"exp": time.Now().Add(-10 * time.Minute).Unix(),
		"iat": time.Now().Add(-20 * time.Minute).Unix(),
	})

	_, err := verifier.Verify(context.Background(), tokenString)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerifyWrongAudience(t *testing.T) {
	verifier, key := newTestVerifier(t)
	tokenString := signToken(t, key, "test-key", jwt.MapClaims{
		"iss": verifier.issuer,
		"aud": "some-other-project",
		"sub": "firebase-uid-123",
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	})

	if _, err := verifier.Verify(context.Background(), tokenString); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	badKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}
	tokenString := signToken(t, badKey, "test-key", jwt.MapClaims{
		"iss": verifier.issuer,
		"aud": testProjectID,
		"sub": "firebase-uid-123",
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	})

	if _, err := verifier.Verify(context.Background(), tokenString); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	verifier, key := newTestVerifier(t)
	tokenString := signToken(t, key, "test-key", jwt.MapClaims{
		"iss": verifier.issuer,
		"aud": testProjectID,
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	})

	if _, err := verifier.Verify(context.Background(), tokenString); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerifyEmptyCredential(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	if _, err := verifier.Verify(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func newTestVerifier(t *testing.T) (*JWKSVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	jwks := newJWKS(key, "test-key")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(server.Close)

	verifier, err := NewVerifier(testProjectID, server.URL)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return verifier, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	tokenString, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

type jwksPayload struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newJWKS(key *rsa.PrivateKey, kid string) jwksPayload {
	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
	return jwksPayload{
		Keys: []jwk{{
			Kty: "RSA",
			Kid: kid,
			Use: "sig",
			Alg: "RS256",
			N:   n,
			E:   e,
		}},
	}
}
