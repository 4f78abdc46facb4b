// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/tenancy"
)

// orgContextKey is the context key for storing the resolved OrgContext.
const orgContextKey = "insightgw_org_context"

// SetOrgContext stores the resolved organization scope in the Gin context.
func SetOrgContext(c *gin.Context, orgCtx *tenancy.OrgContext) {
	c.Set(orgContextKey, orgCtx)
}

// GetOrgContext retrieves the resolved organization scope from the Gin
// context. Returns nil if OrgContextMiddleware did not run for this request.
func GetOrgContext(c *gin.Context) *tenancy.OrgContext {
	if v, exists := c.Get(orgContextKey); exists {
		if orgCtx, ok := v.(*tenancy.OrgContext); ok {
			return orgCtx
		}
	}
	return nil
}

// OrgContextMiddleware creates a Gin middleware that resolves the
// authenticated identity to an organization scope.
//
// # Description
//
// Runs after AuthMiddleware. Resolution itself never fails: a subject with
// no tenant assignment gets an empty-scope context and the authorization
// decision falls to CanAccess and the bucket filter downstream. The only
// abort path is a missing identity, which indicates a route wired without
// AuthMiddleware.
//
// # Inputs
//
//   - resolver: The tenancy resolver. Must not be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
func OrgContextMiddleware(resolver *tenancy.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		SetOrgContext(c, resolver.Resolve(c.Request.Context(), identity))
		c.Next()
	}
}
