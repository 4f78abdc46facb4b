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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/llm"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// toLLMMessages converts wire messages to completion backend messages.
func toLLMMessages(messages []datatypes.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// chatParams builds GenerationParams from the optional request fields.
func chatParams(req *datatypes.DirectChatRequest) llm.GenerationParams {
	params := llm.GenerationParams{}
	if req.Temperature > 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		n := req.MaxTokens
		params.MaxTokens = &n
	}
	return params
}

// persistChatTurn saves the final question/answer turn when the request
// carries a session. Failures are logged, never surfaced.
func persistChatTurn(client *weaviate.Client, orgID string, req *datatypes.DirectChatRequest, answer string) {
	if client == nil || req.SessionID == "" || len(req.Messages) == 0 {
		return
	}
	conv := &datatypes.Conversation{
		SessionID: req.SessionID,
		OrgID:     orgID,
		Question:  req.Messages[len(req.Messages)-1].Content,
		Answer:    answer,
	}
	go func() {
		if err := conv.Save(client); err != nil {
			slog.Error("Failed to persist chat turn", "sessionId", conv.SessionID, "error", err)
		}
	}()
}

// HandleDirectChat runs a non-RAG chat completion over the supplied message
// sequence and returns the full answer in one response.
func HandleDirectChat(llmClient llm.LLMClient, weaviateClient *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDirectChat")
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
		span.SetAttributes(
			attribute.String("request.id", req.RequestID),
			attribute.Int("request.messages", len(req.Messages)),
		)

		orgCtx := middleware.GetOrgContext(c)
		if orgCtx == nil {
			c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		start := time.Now()
		answer, err := llmClient.Chat(ctx, toLLMMessages(req.Messages), chatParams(&req))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "completion failed")
			slog.Error("Direct chat completion failed", "requestId", req.RequestID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("completion backend failed"))
			return
		}

		persistChatTurn(weaviateClient, orgCtx.ActiveOrgID, &req, answer)

		resp := datatypes.NewDirectChatResponse(req.RequestID, answer)
		resp.ProcessingTimeMs = time.Since(start).Milliseconds()
		c.JSON(http.StatusOK, resp)
	}
}
