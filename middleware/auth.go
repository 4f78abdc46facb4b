// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the gateway service.
//
// This package contains middleware for authentication and organization
// scoping.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	AuthMiddleware
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► provider.Validate(ctx, token)
//	   │
//	   └─► Store Identity in context
//	           │
//	           ▼
//	OrgContextMiddleware
//	   │
//	   ├─► resolver.Resolve(ctx, identity)   (never fails)
//	   │
//	   └─► Store OrgContext in context
//	           │
//	           ▼
//	       Handler (retrieves via GetIdentity / GetOrgContext)
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/datatypes"
)

// =============================================================================
// Context Keys
// =============================================================================

// identityKey is the context key for storing the authenticated Identity.
// Using a dedicated key prevents collisions with other context values.
const identityKey = "insightgw_identity"

// =============================================================================
// Context Helpers
// =============================================================================

// SetIdentity stores the authenticated identity in the Gin context.
// Called by AuthMiddleware after successful authentication; handlers
// retrieve it via GetIdentity.
func SetIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity retrieves the authenticated identity from the Gin context.
// Returns nil if the request was not authenticated or the stored value has
// the wrong type.
func GetIdentity(c *gin.Context) *auth.Identity {
	if v, exists := c.Get(identityKey); exists {
		if identity, ok := v.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware creates a Gin middleware that authenticates requests.
//
// # Description
//
// Extracts the bearer token from the Authorization header, validates it with
// the provided AuthProvider, and stores the resulting Identity in the context
// for downstream handlers. Failures abort the request with 401 and the
// standard error envelope; a missing credential is reported distinctly from
// an invalid one.
//
// # Inputs
//
//   - provider: AuthProvider to validate tokens. Must not be nil and must be
//     safe for concurrent calls.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
func AuthMiddleware(provider auth.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		identity, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingCredential):
				c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			case errors.Is(err, auth.ErrInvalidCredential):
				c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.NewErrorResponse("invalid credentials"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.NewErrorResponse("authentication failed"))
			}
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken extracts the token from the Authorization header.
// Returns empty string if the header is missing or malformed. The "Bearer"
// prefix is case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
