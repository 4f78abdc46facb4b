// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/handlers"
	"github.com/qig-labs/insight-gateway/llm"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/qig-labs/insight-gateway/search"
	"github.com/qig-labs/insight-gateway/services"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// Deps are the wired collaborators the route table needs. All clients are
// constructed and validated at startup; none are created lazily.
type Deps struct {
	AuthProvider   auth.AuthProvider
	Resolver       *tenancy.Resolver
	Directory      tenancy.Directory
	Overrides      tenancy.ImpersonationStore
	SearchClient   *search.Client
	LLMClient      llm.LLMClient
	WeaviateClient *weaviate.Client
}

// SetupRoutes registers the gateway's HTTP surface.
//
// /health and /metrics are unauthenticated. Everything under /v1 runs behind
// the auth and organization-scope middlewares; the org switch commands
// additionally enforce privileged-admin inside their handlers.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HandleHealth())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orch := services.NewRagOrchestrator(deps.SearchClient, deps.LLMClient)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.AuthProvider))
	v1.Use(middleware.OrgContextMiddleware(deps.Resolver))
	{
		v1.GET("/buckets", handlers.HandleListBuckets(deps.SearchClient))
		v1.POST("/ask", handlers.HandleAsk(orch, deps.SearchClient, deps.WeaviateClient))
		v1.POST("/chat/direct", handlers.HandleDirectChat(deps.LLMClient, deps.WeaviateClient))
		v1.POST("/chat/stream", handlers.HandleChatStream(deps.LLMClient, deps.WeaviateClient))

		// Organization impersonation commands (privileged admins only)
		org := v1.Group("/org")
		{
			org.POST("/switch", handlers.HandleOrgSwitch(deps.Directory, deps.Overrides))
			org.POST("/reset", handlers.HandleOrgReset(deps.Overrides))
			org.GET("/current", handlers.HandleOrgCurrent())
		}

		// Session administration routes
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", handlers.HandleListSessions(deps.WeaviateClient))
			sessions.GET("/:sessionId/history", handlers.HandleSessionHistory(deps.WeaviateClient))
			sessions.DELETE("/:sessionId", handlers.HandleDeleteSession(deps.WeaviateClient))
		}
	}
}
