// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"context"
	"testing"

	"github.com/qig-labs/insight-gateway/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory is a map-backed tenant directory.
type fakeDirectory struct {
	assignments   map[string]*Organization // subjectID -> org
	organizations map[string]*Organization // orgID -> org
}

func (d *fakeDirectory) AssignmentForSubject(_ context.Context, subjectID string) (*Organization, error) {
	if org, ok := d.assignments[subjectID]; ok {
		return org, nil
	}
	return nil, ErrNotFound
}

func (d *fakeDirectory) OrganizationByID(_ context.Context, orgID string) (*Organization, error) {
	if org, ok := d.organizations[orgID]; ok {
		return org, nil
	}
	return nil, ErrNotFound
}

func newTestResolver() (*Resolver, *fakeDirectory, *MemoryStore) {
	directory := &fakeDirectory{
		assignments: map[string]*Organization{
			"subj-austin": {ID: "org-austin", DisplayName: "Austin Industries", Tier: "standard"},
		},
		organizations: map[string]*Organization{
			"org-austin": {ID: "org-austin", DisplayName: "Austin Industries", Tier: "standard"},
			"org-42":     {ID: "org-42", DisplayName: "Spinakr", Tier: "premium"},
		},
	}
	store := NewMemoryStore()
	return NewResolver(directory, store, nil), directory, store
}

func TestIsPrivileged(t *testing.T) {
	resolver, _, _ := newTestResolver()

	tests := []struct {
		email string
		want  bool
	}{
		{"admin@qig.example", true},
		{"Admin@QIG.EXAMPLE", true},
		{"user@austin.example", false},
		{"no-at-sign", false},
		{"trailing@", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolver.IsPrivileged(tt.email), "email %q", tt.email)
	}
}

func TestResolve_PrivilegedGetsSentinelHome(t *testing.T) {
	resolver, _, _ := newTestResolver()

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-admin", Email: "admin@qig.example",
	})

	assert.True(t, orgCtx.IsPrivilegedAdmin)
	assert.Equal(t, AdminOrgID, orgCtx.HomeOrgID)
	assert.Equal(t, AdminOrgName, orgCtx.HomeOrgName)
	assert.Equal(t, AdminOrgID, orgCtx.ActiveOrgID)
}

func TestResolve_AssignedSubject(t *testing.T) {
	resolver, _, _ := newTestResolver()

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-austin", Email: "user@austin.example",
	})

	assert.False(t, orgCtx.IsPrivilegedAdmin)
	assert.Equal(t, "org-austin", orgCtx.HomeOrgID)
	assert.Equal(t, "Austin Industries", orgCtx.HomeOrgName)
	// Without impersonation active always equals home.
	assert.Equal(t, orgCtx.HomeOrgID, orgCtx.ActiveOrgID)
	assert.Equal(t, orgCtx.HomeOrgName, orgCtx.ActiveOrgName)
}

func TestResolve_UnassignedSubjectDegradesToEmptyScope(t *testing.T) {
	resolver, _, _ := newTestResolver()

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-unknown", Email: "drifter@nowhere.example",
	})

	require.NotNil(t, orgCtx)
	assert.Empty(t, orgCtx.HomeOrgID)
	assert.Empty(t, orgCtx.ActiveOrgID)
	assert.False(t, orgCtx.CanAccess("org-austin"))
}

func TestResolve_OverrideAppliedForAdmin(t *testing.T) {
	resolver, _, store := newTestResolver()
	store.SetOverride("subj-admin", "org-42")

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-admin", Email: "admin@qig.example",
	})

	assert.Equal(t, AdminOrgID, orgCtx.HomeOrgID)
	assert.Equal(t, "org-42", orgCtx.ActiveOrgID)
	assert.Equal(t, "Spinakr", orgCtx.ActiveOrgName)
}

func TestResolve_OverrideIgnoredForNonAdmin(t *testing.T) {
	resolver, _, store := newTestResolver()
	store.SetOverride("subj-austin", "org-42")

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-austin", Email: "user@austin.example",
	})

	assert.Equal(t, "org-austin", orgCtx.ActiveOrgID)
}

func TestResolve_DeletedOverrideTargetFallsBackToHome(t *testing.T) {
	resolver, directory, store := newTestResolver()
	store.SetOverride("subj-admin", "org-42")
	delete(directory.organizations, "org-42")

	orgCtx := resolver.Resolve(context.Background(), &auth.Identity{
		SubjectID: "subj-admin", Email: "admin@qig.example",
	})

	assert.Equal(t, AdminOrgID, orgCtx.ActiveOrgID)
	assert.Equal(t, AdminOrgName, orgCtx.ActiveOrgName)
}

func TestCanAccess(t *testing.T) {
	admin := &OrgContext{IsPrivilegedAdmin: true, HomeOrgID: AdminOrgID}
	assert.True(t, admin.CanAccess("org-austin"))
	assert.True(t, admin.CanAccess("anything-at-all"))

	member := &OrgContext{HomeOrgID: "org-austin"}
	assert.True(t, member.CanAccess("org-austin"))
	assert.False(t, member.CanAccess("org-42"))

	unassigned := &OrgContext{}
	assert.False(t, unassigned.CanAccess(""))
	assert.False(t, unassigned.CanAccess("org-austin"))
}
