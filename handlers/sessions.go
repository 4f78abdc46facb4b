// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandleListSessions lists conversation sessions visible to the caller.
// Privileged admins see every session; everyone else sees only sessions
// stored under their active organization.
func HandleListSessions(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleListSessions")
		defer span.End()

		orgCtx := middleware.GetOrgContext(c)
		if orgCtx == nil {
			c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		fields := []graphql.Field{
			{Name: "session_id"},
			{Name: "org_id"},
			{Name: "summary"},
			{Name: "timestamp"},
		}

		query := client.GraphQL().Get().
			WithClassName("Session").
			WithFields(fields...)
		if !orgCtx.IsPrivilegedAdmin {
			query = query.WithWhere(filters.Where().
				WithPath([]string{"org_id"}).
				WithOperator(filters.Equal).
				WithValueString(orgCtx.ActiveOrgID))
		}

		resp, err := query.Do(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session query failed")
			slog.Error("Failed to query sessions", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to query sessions"))
			return
		}

		parsed, err := datatypes.ParseGraphQLResponse[datatypes.SessionQueryResponse](resp)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session parse failed")
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to parse session results"))
			return
		}

		span.SetAttributes(attribute.Int("sessions.count", len(parsed.Get.Session)))
		c.JSON(http.StatusOK, gin.H{"sessions": parsed.Get.Session})
	}
}

// HandleSessionHistory returns the question/answer turns of one session in
// chronological order.
func HandleSessionHistory(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleSessionHistory")
		defer span.End()

		sessionID := c.Param("sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))

		where := filters.Where().
			WithPath([]string{"session_id"}).
			WithOperator(filters.Equal).
			WithValueString(sessionID)

		fields := []graphql.Field{
			{Name: "session_id"},
			{Name: "question"},
			{Name: "answer"},
			{Name: "timestamp"},
		}

		resp, err := client.GraphQL().Get().
			WithClassName("Conversation").
			WithWhere(where).
			WithFields(fields...).
			WithSort(graphql.Sort{Path: []string{"timestamp"}, Order: graphql.Asc}).
			Do(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "history query failed")
			slog.Error("Failed to query session history", "sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to query session history"))
			return
		}

		parsed, err := datatypes.ParseGraphQLResponse[datatypes.ConversationQueryResponse](resp)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "history parse failed")
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to parse session history"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"turns":      parsed.Get.Conversation,
		})
	}
}

// HandleDeleteSession removes a session and all of its conversation turns.
// Turn deletion failures are logged but do not abort the session delete; a
// re-run of the delete cleans up any stragglers.
func HandleDeleteSession(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDeleteSession")
		defer span.End()

		sessionID := c.Param("sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))
		slog.Info("Deleting session", "sessionId", sessionID)

		where := filters.Where().
			WithPath([]string{"session_id"}).
			WithOperator(filters.Equal).
			WithValueString(sessionID)

		_, err := client.Batch().ObjectsBatchDeleter().
			WithClassName("Conversation").
			WithOutput("minimal").
			WithWhere(where).
			Do(ctx)
		if err != nil {
			slog.Error("Failed to delete conversation turns", "sessionId", sessionID, "error", err)
		}

		_, err = client.Batch().ObjectsBatchDeleter().
			WithClassName("Session").
			WithOutput("minimal").
			WithWhere(where).
			Do(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session delete failed")
			slog.Error("Failed to delete session object", "sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("failed to fully delete session"))
			return
		}

		slog.Info("Deleted all data for session", "sessionId", sessionID)
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_id": sessionID})
	}
}
