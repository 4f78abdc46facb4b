// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth exchanges bearer credentials for verified identities.
//
// The AuthProvider interface is the gateway's token verifier. Three
// implementations exist:
//
//   - JWTProvider: validates HS256 JWTs locally against a shared secret
//   - RemoteProvider: defers to an identity provider's verify endpoint
//   - NopProvider: fixed local identity for development
//
// All providers are constructed with validated configuration at process
// startup; a missing secret or unreachable endpoint URL is a startup error,
// never a request-time surprise.
package auth

import (
	"context"
	"errors"
)

// ErrMissingCredential is returned when the Authorization header is absent
// or not a well-formed bearer credential. Terminal for the request.
var ErrMissingCredential = errors.New("missing credential")

// ErrInvalidCredential is returned when the identity provider rejects the
// credential or cannot confirm its validity. Terminal for the request; no
// retries are attempted at this layer.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the verified caller identity produced by a successful
// verification. Immutable for the request lifetime; never persisted by the
// gateway.
type Identity struct {
	// SubjectID is the unique identifier for the authenticated subject.
	// Never empty on a successful Validate.
	SubjectID string

	// Email is the subject's email address. Organization privilege is
	// derived from its domain.
	Email string
}

// AuthProvider validates authentication tokens and returns the caller's
// identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// A verification failure is terminal for the request; providers perform no
// retries.
type AuthProvider interface {
	// Validate checks the token and returns the subject's identity.
	//
	// Returns ErrMissingCredential (or wrapped) for an empty token,
	// ErrInvalidCredential (or wrapped) when the provider rejects it, and
	// other errors for provider failures.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// NopProvider is the development auth provider. It accepts any non-empty
// token and returns a fixed local identity, so the gateway can run without
// identity infrastructure.
//
// Thread-safe: no mutable state.
type NopProvider struct{}

// Validate returns the fixed local identity. An empty token still fails with
// ErrMissingCredential so the middleware's envelope behavior is exercised in
// development too.
func (p *NopProvider) Validate(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}
	return &Identity{
		SubjectID: "local-user",
		Email:     "local-user@qig.example",
	}, nil
}

// Compile-time interface compliance check.
var _ AuthProvider = (*NopProvider)(nil)
