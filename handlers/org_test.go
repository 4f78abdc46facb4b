// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrgDirectory serves org lookups from a map.
type fakeOrgDirectory struct {
	organizations map[string]*tenancy.Organization
}

func (d *fakeOrgDirectory) AssignmentForSubject(_ context.Context, _ string) (*tenancy.Organization, error) {
	return nil, tenancy.ErrNotFound
}

func (d *fakeOrgDirectory) OrganizationByID(_ context.Context, orgID string) (*tenancy.Organization, error) {
	if org, ok := d.organizations[orgID]; ok {
		return org, nil
	}
	return nil, tenancy.ErrNotFound
}

func newOrgRouter(scope gin.HandlerFunc) (*gin.Engine, *tenancy.MemoryStore, *fakeOrgDirectory) {
	directory := &fakeOrgDirectory{organizations: map[string]*tenancy.Organization{
		"org-42": {ID: "org-42", DisplayName: "Spinakr", Tier: "premium"},
	}}
	store := tenancy.NewMemoryStore()

	router := gin.New()
	org := router.Group("/v1/org", scope)
	org.POST("/switch", HandleOrgSwitch(directory, store))
	org.POST("/reset", HandleOrgReset(store))
	org.GET("/current", HandleOrgCurrent())
	return router, store, directory
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleOrgSwitch_SetsOverride(t *testing.T) {
	identity, orgCtx := adminScope()
	router, store, _ := newOrgRouter(withScope(identity, orgCtx))

	w := postJSON(t, router, "/v1/org/switch", datatypes.OrgSwitchRequest{OrgID: "org-42"})

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.OrgStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "org-42", body.ActiveOrgID)
	assert.Equal(t, "Spinakr", body.ActiveOrgName)
	assert.Equal(t, tenancy.AdminOrgID, body.HomeOrgID)

	overrideID, ok := store.GetOverride(identity.SubjectID)
	require.True(t, ok)
	assert.Equal(t, "org-42", overrideID)
}

func TestHandleOrgSwitch_UnknownOrgIsNotFound(t *testing.T) {
	identity, orgCtx := adminScope()
	router, store, _ := newOrgRouter(withScope(identity, orgCtx))

	w := postJSON(t, router, "/v1/org/switch", datatypes.OrgSwitchRequest{OrgID: "org-missing"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	_, ok := store.GetOverride(identity.SubjectID)
	assert.False(t, ok)
}

func TestHandleOrgSwitch_MissingOrgIDIsBadRequest(t *testing.T) {
	identity, orgCtx := adminScope()
	router, _, _ := newOrgRouter(withScope(identity, orgCtx))

	w := postJSON(t, router, "/v1/org/switch", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOrgSwitch_NonAdminIsForbidden(t *testing.T) {
	identity, orgCtx := memberScope()
	router, store, _ := newOrgRouter(withScope(identity, orgCtx))

	w := postJSON(t, router, "/v1/org/switch", datatypes.OrgSwitchRequest{OrgID: "org-42"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	_, ok := store.GetOverride(identity.SubjectID)
	assert.False(t, ok)
}

func TestHandleOrgReset_ClearsOverride(t *testing.T) {
	identity, orgCtx := adminScope()
	router, store, _ := newOrgRouter(withScope(identity, orgCtx))
	store.SetOverride(identity.SubjectID, "org-42")

	w := postJSON(t, router, "/v1/org/reset", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.OrgStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, body.HomeOrgID, body.ActiveOrgID)

	_, ok := store.GetOverride(identity.SubjectID)
	assert.False(t, ok)
}

func TestHandleOrgReset_NoOverrideIsStillSuccess(t *testing.T) {
	identity, orgCtx := adminScope()
	router, _, _ := newOrgRouter(withScope(identity, orgCtx))

	w := postJSON(t, router, "/v1/org/reset", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleOrgCurrent_ReportsResolvedScope(t *testing.T) {
	identity, orgCtx := adminScope()
	// Middleware already applied an impersonation for this request.
	orgCtx.ActiveOrgID = "org-42"
	orgCtx.ActiveOrgName = "Spinakr"
	router, _, _ := newOrgRouter(withScope(identity, orgCtx))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/org/current", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.OrgStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "org-42", body.ActiveOrgID)
	assert.Equal(t, "Spinakr", body.ActiveOrgName)
	assert.Equal(t, tenancy.AdminOrgID, body.HomeOrgID)
}

func TestHandleOrgCurrent_NonAdminIsForbidden(t *testing.T) {
	identity, orgCtx := memberScope()
	router, _, _ := newOrgRouter(withScope(identity, orgCtx))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/org/current", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Scenario: switch, current, reset, current — the active organization follows
// the override within its window and returns home after reset.
func TestOrgCommands_SwitchCurrentResetFlow(t *testing.T) {
	identity, orgCtx := adminScope()
	directory := &fakeOrgDirectory{organizations: map[string]*tenancy.Organization{
		"org-42": {ID: "org-42", DisplayName: "Spinakr"},
	}}
	store := tenancy.NewMemoryStore()
	resolver := tenancy.NewResolver(directory, store, nil)

	router := gin.New()
	org := router.Group("/v1/org", withScope(identity, orgCtx))
	org.POST("/switch", HandleOrgSwitch(directory, store))
	org.POST("/reset", HandleOrgReset(store))

	w := postJSON(t, router, "/v1/org/switch", datatypes.OrgSwitchRequest{OrgID: "org-42"})
	require.Equal(t, http.StatusOK, w.Code)

	resolved := resolver.Resolve(context.Background(), identity)
	assert.Equal(t, "org-42", resolved.ActiveOrgID)
	assert.Equal(t, "Spinakr", resolved.ActiveOrgName)
	assert.Equal(t, tenancy.AdminOrgID, resolved.HomeOrgID)

	w = postJSON(t, router, "/v1/org/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resolved = resolver.Resolve(context.Background(), identity)
	assert.Equal(t, tenancy.AdminOrgID, resolved.ActiveOrgID)
	assert.Equal(t, tenancy.AdminOrgName, resolved.ActiveOrgName)
}
