// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/qig-labs/insight-gateway/observability"
	"github.com/qig-labs/insight-gateway/services"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Answerer runs a RAG answer request. Implemented by
// *services.RagOrchestrator; abstracted for handler tests.
type Answerer interface {
	Answer(ctx context.Context, req *datatypes.AskRequest) (*datatypes.RagAnswer, error)
}

// HandleAsk answers a question over one of the caller's visible buckets.
//
// # Description
//
// The flow is:
//  1. Bind and default the request body.
//  2. Check the requested bucket is in the caller's filtered bucket list;
//     a bucket outside the caller's scope is a 403 regardless of whether it
//     exists upstream.
//  3. Run the orchestrator (retrieval + generation).
//  4. Persist the question/answer turn asynchronously; persistence failures
//     are logged, never surfaced to the caller.
//
// Orchestrator errors map to status codes by kind: InvalidRequestError to
// 400, RetrievalError and GenerationError to 500.
func HandleAsk(orch Answerer, lister BucketLister, weaviateClient *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAsk")
		defer span.End()

		var req datatypes.AskRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bind failed")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid request body"))
			return
		}
		req.EnsureDefaults()
		sessionID := req.EnsureSessionID()
		span.SetAttributes(
			attribute.String("request.id", req.RequestID),
			attribute.String("request.bucket_id", req.BucketID),
			attribute.String("session.id", sessionID),
		)

		orgCtx := middleware.GetOrgContext(c)
		if orgCtx == nil {
			c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		if !bucketVisible(ctx, lister, orgCtx, req.BucketID) {
			span.SetStatus(codes.Error, "bucket not in scope")
			observability.ScopeDenials.Inc()
			c.JSON(http.StatusForbidden, datatypes.NewErrorResponse("bucket is not accessible to your organization"))
			return
		}

		answer, err := orch.Answer(ctx, &req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "answer failed")
			status := http.StatusInternalServerError
			if services.IsInvalidRequest(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, datatypes.NewErrorResponse(err.Error()))
			return
		}

		observability.AnswersTotal.Inc()
		observability.AnswerLatency.Observe(float64(answer.Timing.TotalMs) / 1000.0)

		if weaviateClient != nil {
			conv := &datatypes.Conversation{
				SessionID: sessionID,
				OrgID:     orgCtx.ActiveOrgID,
				Question:  req.Query,
				Answer:    answer.Answer,
			}
			go func() {
				if err := conv.Save(weaviateClient); err != nil {
					slog.Error("Failed to persist conversation turn", "sessionId", conv.SessionID, "error", err)
				}
			}()
		}

		c.JSON(http.StatusOK, datatypes.NewAskResponse(req.RequestID, sessionID, answer))
	}
}

// bucketVisible reports whether the requested bucket survives the caller's
// bucket filter. An upstream listing failure denies access; the caller can
// retry once the search service is back.
func bucketVisible(ctx context.Context, lister BucketLister, orgCtx *tenancy.OrgContext, bucketID string) bool {
	if orgCtx.IsPrivilegedAdmin {
		return true
	}
	buckets, err := lister.ListBuckets(ctx)
	if err != nil {
		slog.Error("Failed to list buckets for visibility check", "error", err)
		return false
	}
	for _, b := range tenancy.FilterBuckets(buckets, orgCtx) {
		if b.ID == bucketID {
			return true
		}
	}
	return false
}
