// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/qig-labs/insight-gateway/auth"
)

// DefaultAdminDomains are the administrative email domains when none are
// configured.
var DefaultAdminDomains = []string{"qig.example"}

// Resolver derives the caller's organization context from a verified
// identity.
//
// # Description
//
// Resolution never fails: a directory error degrades to an unassigned
// context (empty home fields) so the authorization decision is made
// closed-world by CanAccess and the bucket filter, not by a transport
// failure. Privilege is a pure function of the identity's email domain.
//
// # Thread Safety
//
// Safe for concurrent use; the domain set is never mutated after
// construction.
type Resolver struct {
	directory    Directory
	overrides    ImpersonationStore
	adminDomains map[string]struct{}
}

// NewResolver creates a Resolver. An empty domain list falls back to
// DefaultAdminDomains.
func NewResolver(directory Directory, overrides ImpersonationStore, adminDomains []string) *Resolver {
	if len(adminDomains) == 0 {
		adminDomains = DefaultAdminDomains
	}
	domains := make(map[string]struct{}, len(adminDomains))
	for _, d := range adminDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains[d] = struct{}{}
		}
	}
	return &Resolver{
		directory:    directory,
		overrides:    overrides,
		adminDomains: domains,
	}
}

// IsPrivileged reports whether the email belongs to an administrative
// domain. Pure and deterministic: the same identity always yields the same
// privilege.
func (r *Resolver) IsPrivileged(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	_, ok := r.adminDomains[strings.ToLower(email[at+1:])]
	return ok
}

// Resolve builds the organization context for the identity.
//
// # Description
//
// Privileged identities get the sentinel wildcard home organization with no
// directory lookup. Everyone else is resolved through their first active
// assignment; no assignment (or any lookup error, which is logged) leaves the
// home fields empty — logged in, but unauthorized for every named
// organization.
//
// The active organization defaults to home. For a privileged identity with
// an unexpired override, the override organization's display name is
// re-resolved from the directory; when that lookup fails the active
// organization silently falls back to home. Fail-open to identity,
// fail-closed to scope: a deleted override target downgrades the admin's
// scope to their own home rather than failing the request.
func (r *Resolver) Resolve(ctx context.Context, identity *auth.Identity) *OrgContext {
	orgCtx := &OrgContext{}

	if r.IsPrivileged(identity.Email) {
		orgCtx.IsPrivilegedAdmin = true
		orgCtx.HomeOrgID = AdminOrgID
		orgCtx.HomeOrgName = AdminOrgName
	} else {
		org, err := r.directory.AssignmentForSubject(ctx, identity.SubjectID)
		if err != nil {
			slog.Warn("No organization assignment resolved for subject",
				"subjectId", identity.SubjectID, "error", err)
		} else {
			orgCtx.HomeOrgID = org.ID
			orgCtx.HomeOrgName = org.DisplayName
		}
	}

	orgCtx.ActiveOrgID = orgCtx.HomeOrgID
	orgCtx.ActiveOrgName = orgCtx.HomeOrgName

	if orgCtx.IsPrivilegedAdmin {
		if overrideID, ok := r.overrides.GetOverride(identity.SubjectID); ok {
			org, err := r.directory.OrganizationByID(ctx, overrideID)
			if err != nil {
				slog.Warn("Impersonation target could not be re-resolved, falling back to home",
					"subjectId", identity.SubjectID, "overrideOrgId", overrideID, "error", err)
			} else {
				orgCtx.ActiveOrgID = org.ID
				orgCtx.ActiveOrgName = org.DisplayName
			}
		}
	}

	return orgCtx
}
