// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package identity verifies Firebase ID tokens via JWKS and validates
// issuer/audience. The rest of the service only sees the Verifier
// interface and the stable subject id it yields; why a given token is
// bad (expired, malformed, unsigned) is deliberately not surfaced.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// defaultJWKSURL serves the public keys Firebase signs ID tokens with.
const defaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// ErrUnauthenticated is returned for any credential the verifier rejects.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims are the fields the service consumes from a verified token.
type Claims struct {
	Subject string
	Email   string
}

// Verifier validates a bearer credential and extracts claims.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}

// JWKSVerifier validates Firebase ID tokens against a JWKS endpoint.
type JWKSVerifier struct {
	issuer   string
	audience string
	keyfunc  keyfunc.Keyfunc
	parser   *jwt.Parser
}

// NewVerifierFromEnv initializes a verifier from FIREBASE_PROJECT_ID.
func NewVerifierFromEnv() (*JWKSVerifier, error) {
	projectID := strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID"))
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID must be set")
	}
	return NewVerifier(projectID, os.Getenv("FIREBASE_JWKS_URL"))
}

// NewVerifier builds a verifier for one Firebase project with an
// optional JWKS URL override (used by tests).
func NewVerifier(projectID, jwksURL string) (*JWKSVerifier, error) {
	if projectID == "" {
		return nil, errors.New("project id must be set")
	}
	if jwksURL == "" {
		jwksURL = defaultJWKSURL
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	issuer := "https://securetoken.google.com/" + projectID
	parser := jwt.NewParser(
		jwt.WithIssuer(issuer),
		jwt.WithAudience(projectID),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	)

	return &JWKSVerifier{
		issuer:   issuer,
		audience: projectID,
		keyfunc:  keyProvider,
		parser:   parser,
	}, nil
}

// Verify parses and validates an ID token, returning extracted claims.
// Every failure mode maps to ErrUnauthenticated.
func (v *JWKSVerifier) Verify(ctx context.Context, credential string) (*Claims, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	token, err := v.parser.Parse(credential, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, ErrUnauthenticated
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{
		Subject: readString(mapClaims, "sub"),
		Email:   readString(mapClaims, "email"),
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token missing sub", ErrUnauthenticated)
	}
	return claims, nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
