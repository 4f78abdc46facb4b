// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/llm"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// =============================================================================
// Stream Events
// =============================================================================

// StreamEvent is one Server-Sent Event on the streaming chat endpoint.
//
// Type is "delta" for incremental content, "done" for the final event
// carrying the reassembled response, or "error". Clients that only want the
// full answer can ignore deltas and read the "done" payload, which matches
// the non-streaming response shape.
type StreamEvent struct {
	Type     string                        `json:"type"`
	Content  string                        `json:"content,omitempty"`
	Response *datatypes.DirectChatResponse `json:"response,omitempty"`
	Error    string                        `json:"error,omitempty"`
}

// writeSSE writes one event in SSE wire format and flushes immediately.
func writeSSE(c *gin.Context, event StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stream event: %w", err)
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// =============================================================================
// Streaming Chat Handler
// =============================================================================

// HandleChatStream runs a streaming chat completion over SSE.
//
// Content deltas are forwarded as they arrive. After the stream completes
// the deltas are reassembled into the same full-text response shape as the
// non-streaming endpoint, emitted as the final "done" event, and persisted
// when the request carries a session. A caller disconnect cancels the
// in-flight completion and discards partial output.
func HandleChatStream(llmClient llm.LLMClient, weaviateClient *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleChatStream")
		defer span.End()

		var req datatypes.DirectChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bind failed")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse("invalid request body"))
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}
		span.SetAttributes(attribute.String("request.id", req.RequestID))

		orgCtx := middleware.GetOrgContext(c)
		if orgCtx == nil {
			c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()

		full, err := llmClient.ChatStream(ctx, toLLMMessages(req.Messages), chatParams(&req),
			func(delta string) error {
				return writeSSE(c, StreamEvent{Type: "delta", Content: delta})
			})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
			slog.Error("Streaming chat completion failed", "requestId", req.RequestID, "error", err)
			// Headers are already out; the error has to travel in-band.
			_ = writeSSE(c, StreamEvent{Type: "error", Error: "completion backend failed"})
			return
		}

		persistChatTurn(weaviateClient, orgCtx.ActiveOrgID, &req, full)

		if err := writeSSE(c, StreamEvent{Type: "done", Response: datatypes.NewDirectChatResponse(req.RequestID, full)}); err != nil {
			slog.Warn("Failed to write final stream event", "requestId", req.RequestID, "error", err)
		}
	}
}
