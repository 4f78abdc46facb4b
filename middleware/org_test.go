// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticDirectory resolves one subject to one organization.
type staticDirectory struct {
	subjectID string
	org       *tenancy.Organization
}

func (d *staticDirectory) AssignmentForSubject(_ context.Context, subjectID string) (*tenancy.Organization, error) {
	if subjectID == d.subjectID {
		return d.org, nil
	}
	return nil, tenancy.ErrNotFound
}

func (d *staticDirectory) OrganizationByID(_ context.Context, orgID string) (*tenancy.Organization, error) {
	if d.org != nil && orgID == d.org.ID {
		return d.org, nil
	}
	return nil, tenancy.ErrNotFound
}

func TestOrgContextMiddleware_ResolvesScope(t *testing.T) {
	directory := &staticDirectory{
		subjectID: "subj-1",
		org:       &tenancy.Organization{ID: "org-austin", DisplayName: "Austin Industries"},
	}
	resolver := tenancy.NewResolver(directory, tenancy.NewMemoryStore(), nil)
	provider := &mockAuthProvider{identity: &auth.Identity{SubjectID: "subj-1", Email: "user@austin.example"}}

	var captured *tenancy.OrgContext
	router := gin.New()
	router.GET("/probe", AuthMiddleware(provider), OrgContextMiddleware(resolver), func(c *gin.Context) {
		captured = GetOrgContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "org-austin", captured.HomeOrgID)
	assert.Equal(t, "org-austin", captured.ActiveOrgID)
	assert.False(t, captured.IsPrivilegedAdmin)
}

func TestOrgContextMiddleware_UnassignedStillPasses(t *testing.T) {
	resolver := tenancy.NewResolver(&staticDirectory{}, tenancy.NewMemoryStore(), nil)
	provider := &mockAuthProvider{identity: &auth.Identity{SubjectID: "subj-x", Email: "drifter@nowhere.example"}}

	var captured *tenancy.OrgContext
	router := gin.New()
	router.GET("/probe", AuthMiddleware(provider), OrgContextMiddleware(resolver), func(c *gin.Context) {
		captured = GetOrgContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Resolution never fails the request; scope is just empty.
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Empty(t, captured.HomeOrgID)
}

func TestOrgContextMiddleware_MissingIdentityAborts(t *testing.T) {
	resolver := tenancy.NewResolver(&staticDirectory{}, tenancy.NewMemoryStore(), nil)

	router := gin.New()
	// Route wired without AuthMiddleware.
	router.GET("/probe", OrgContextMiddleware(resolver), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
