// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/qig-labs/insight-gateway/observability"
	"github.com/qig-labs/insight-gateway/tenancy"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// requireAdmin loads the identity and organization scope and enforces the
// privileged-admin requirement shared by the org switch commands. On failure
// it writes the error response and returns ok=false.
func requireAdmin(c *gin.Context) (identity *auth.Identity, orgCtx *tenancy.OrgContext, ok bool) {
	identity = middleware.GetIdentity(c)
	orgCtx = middleware.GetOrgContext(c)
	if identity == nil || orgCtx == nil {
		c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
		return nil, nil, false
	}
	if !orgCtx.IsPrivilegedAdmin {
		observability.ScopeDenials.Inc()
		c.JSON(http.StatusForbidden, datatypes.NewErrorResponse("admin privileges required"))
		return nil, nil, false
	}
	return identity, orgCtx, true
}

// HandleOrgSwitch starts an impersonation session for a privileged admin.
//
// The target organization must exist in the tenant directory; a missing
// organization is a 404 and no override is written. The override replaces any
// previous one for the subject and expires 24 hours after this call.
func HandleOrgSwitch(directory tenancy.Directory, store tenancy.ImpersonationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleOrgSwitch")
		defer span.End()

		identity, orgCtx, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req datatypes.OrgSwitchRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bind failed")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("org_id is required"))
			return
		}
		span.SetAttributes(attribute.String("org.target_id", req.OrgID))

		org, err := directory.OrganizationByID(ctx, req.OrgID)
		if err != nil {
			if errors.Is(err, tenancy.ErrNotFound) {
				c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("organization not found"))
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "directory lookup failed")
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("tenant directory unavailable"))
			return
		}

		store.SetOverride(identity.SubjectID, org.ID)
		observability.ImpersonationSwitches.Inc()

		c.JSON(http.StatusOK, datatypes.NewOrgStateResponse(
			orgCtx.HomeOrgID, orgCtx.HomeOrgName, org.ID, org.DisplayName, true))
	}
}

// HandleOrgReset ends the caller's impersonation session. Resetting with no
// active override is a no-op success.
func HandleOrgReset(store tenancy.ImpersonationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleOrgReset")
		defer span.End()

		identity, orgCtx, ok := requireAdmin(c)
		if !ok {
			return
		}

		store.ClearOverride(identity.SubjectID)

		c.JSON(http.StatusOK, datatypes.NewOrgStateResponse(
			orgCtx.HomeOrgID, orgCtx.HomeOrgName, orgCtx.HomeOrgID, orgCtx.HomeOrgName, true))
	}
}

// HandleOrgCurrent reports the caller's resolved organization scope,
// including any active impersonation already applied by the middleware.
func HandleOrgCurrent() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleOrgCurrent")
		defer span.End()

		_, orgCtx, ok := requireAdmin(c)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, datatypes.NewOrgStateResponse(
			orgCtx.HomeOrgID, orgCtx.HomeOrgName, orgCtx.ActiveOrgID, orgCtx.ActiveOrgName, true))
	}
}
