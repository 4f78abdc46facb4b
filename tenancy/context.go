// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tenancy resolves which organization a caller acts as and narrows
// what that organization may see.
//
// The package contains the gateway's decision logic: organization context
// resolution (with admin impersonation), the impersonation override store,
// and the bucket visibility filter. Everything here is deterministic given
// the directory contents and the override store state; no component in this
// package retries or raises on directory lookup failures — absence degrades
// to an empty scope and the authorization decision lands in CanAccess.
package tenancy

// Sentinel organization for privileged administrators. Admins are not
// assigned to a tenant; their home organization is this wildcard, which
// CanAccess treats as visibility over everything.
const (
	AdminOrgID   = "*"
	AdminOrgName = "QIG"
)

// OrgContext is the per-request organization context.
//
// Built once per request by Resolver.Resolve and never mutated afterwards;
// a new context is constructed for every request. For non-privileged
// identities ActiveOrgID always equals HomeOrgID. Empty home fields mean the
// identity is logged in but unassigned, and therefore unauthorized for every
// organization-scoped operation.
type OrgContext struct {
	HomeOrgID         string
	HomeOrgName       string
	ActiveOrgID       string
	ActiveOrgName     string
	IsPrivilegedAdmin bool
}

// CanAccess reports whether the context may act on the named organization.
// Privileged admins may access everything; everyone else only their home
// organization. An unassigned identity (empty home) can access no named
// organization.
func (c *OrgContext) CanAccess(orgID string) bool {
	if c.IsPrivilegedAdmin {
		return true
	}
	return c.HomeOrgID != "" && orgID == c.HomeOrgID
}
