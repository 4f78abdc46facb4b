// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides the Gin HTTP handlers for the gateway service.
//
// Handlers bind and validate request bodies, read the authenticated identity
// and organization scope from the request context, delegate to the services
// layer, and translate typed errors into the standard error envelope.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealth reports process liveness. Unauthenticated by design so load
// balancers and container runtimes can probe it.
func HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
