// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteProvider verifies tokens against an identity provider's verify
// endpoint.
//
// # Description
//
// The provider POSTs the token to the configured endpoint and expects
// `{"subject_id": ..., "email": ...}` on success. A 401/403 maps to
// ErrInvalidCredential; other failures surface as provider errors. The wire
// protocol of the identity provider beyond these fields is out of scope;
// this is a black-box verify call.
//
// # Thread Safety
//
// Safe for concurrent use.
type RemoteProvider struct {
	verifyURL  string
	httpClient *http.Client
}

// verifyRequest is the body sent to the identity provider.
type verifyRequest struct {
	Token string `json:"token"`
}

// verifyResponse is the body expected from the identity provider.
type verifyResponse struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
}

// NewRemoteProvider creates a RemoteProvider for the given verify endpoint.
// The URL is validated at construction so a misconfigured endpoint is a
// startup error.
func NewRemoteProvider(verifyURL string) (*RemoteProvider, error) {
	parsed, err := url.Parse(verifyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid identity provider URL %q", verifyURL)
	}
	return &RemoteProvider{
		verifyURL:  verifyURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Validate exchanges the bearer token for a verified identity. No retries;
// a verification failure is terminal for the request.
func (p *RemoteProvider) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	payload, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.verifyURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parse
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("identity provider rejected token: %w", ErrInvalidCredential)
	default:
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var verified verifyResponse
	if err := json.Unmarshal(body, &verified); err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}
	if verified.SubjectID == "" {
		return nil, errors.Join(ErrInvalidCredential, errors.New("verify response missing subject"))
	}

	return &Identity{
		SubjectID: verified.SubjectID,
		Email:     verified.Email,
	}, nil
}

// Compile-time interface compliance check.
var _ AuthProvider = (*RemoteProvider)(nil)
