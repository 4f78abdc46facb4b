// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the JWT claims the gateway consumes. Subject rides in the
// registered "sub" claim; Email is a private claim.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTProvider validates HS256-signed tokens against a shared secret.
//
// # Description
//
// Local verification: no network call, suitable when the identity provider
// issues symmetric-key JWTs to the gateway's trust domain. Expiry and
// not-before are enforced by the jwt library during parse.
//
// # Thread Safety
//
// Safe for concurrent use; the secret is never mutated after construction.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider creates a JWTProvider. The secret is required; an empty
// secret is a configuration error surfaced at startup.
func NewJWTProvider(secret string) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTProvider{secret: []byte(secret)}, nil
}

// Validate parses and verifies the token, returning the subject identity.
//
// Failure taxonomy:
//   - empty token: ErrMissingCredential
//   - bad signature, expired, malformed, or missing subject: ErrInvalidCredential
func (p *JWTProvider) Validate(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("token rejected: %w", ErrInvalidCredential)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", ErrInvalidCredential)
	}

	return &Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
	}, nil
}

// IssueToken signs a token for the given subject, valid for ttl. Used by
// operational tooling and tests; the gateway itself only verifies.
func (p *JWTProvider) IssueToken(subjectID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Compile-time interface compliance check.
var _ AuthProvider = (*JWTProvider)(nil)
