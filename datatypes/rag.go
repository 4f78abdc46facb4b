// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides the wire types for the gateway service.
//
// This file contains the request and response types for the RAG answer
// endpoint. Bucket and search result types live in search.go, direct chat
// types in chat.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxQueryBytes is the maximum size of a single query string.
	MaxQueryBytes = 16 * 1024 // 16KB

	// MaxHistoryTurns is the maximum number of prior conversation turns
	// accepted in a request.
	MaxHistoryTurns = 100

	// DefaultResultLimit is the retrieval size used when a request does not
	// specify one.
	DefaultResultLimit = 5

	// MaxResultLimit caps how many documents a single request may retrieve.
	MaxResultLimit = 50
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// ragValidate is the validator instance for RAG datatypes.
var ragValidate *validator.Validate

func init() {
	ragValidate = validator.New()
	_ = ragValidate.RegisterValidation("maxbytes", validateQueryBytes)
}

// validateQueryBytes enforces MaxQueryBytes on string fields. Byte length is
// checked, not rune count, so oversized multi-byte payloads are rejected too.
func validateQueryBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQueryBytes
}

// =============================================================================
// Message
// =============================================================================

// Message is a single conversation turn.
//
// Role is one of "user", "assistant" or "system". The orchestrator drops any
// other role silently when assembling conversation context.
type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// =============================================================================
// Ask Request
// =============================================================================

// AskRequest is the request body for POST /v1/ask.
//
// # Fields
//
//   - RequestID: Optional. Unique identifier (UUID v4); generated server-side
//     when absent. Used for tracing and audit correlation.
//   - Timestamp: Optional. Unix milliseconds (UTC); stamped server-side when
//     absent.
//   - Query: Required. The user's question, at most 16KB.
//   - BucketID: Required. The document collection to answer over. Must parse
//     to an integer collection identifier; validated by the orchestrator
//     before any network call.
//   - SessionID: Optional. Conversation session; a new one is minted when
//     absent.
//   - History: Optional. Prior turns, oldest first, at most 100.
//   - Limit: Optional. Retrieval size, defaulted to 5, capped at 50.
//   - IncludeThoughts: Optional. Attach a one-line retrieval rationale to the
//     answer.
//   - Temperature: Optional. Sampling temperature forwarded to the model.
//   - UseConversationContext: Optional. Feed prior history turns into the
//     prompt.
type AskRequest struct {
	RequestID              string    `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp              int64     `json:"timestamp" validate:"gte=0"`
	Query                  string    `json:"query" validate:"required,maxbytes"`
	BucketID               string    `json:"bucket_id" validate:"required"`
	SessionID              string    `json:"session_id"`
	History                []Message `json:"history" validate:"max=100,dive"`
	Limit                  int       `json:"limit" validate:"gte=0,lte=50"`
	IncludeThoughts        bool      `json:"include_thoughts"`
	Temperature            float32   `json:"temperature" validate:"gte=0,lte=2"`
	UseConversationContext bool      `json:"use_conversation_context"`
}

// Validate validates the AskRequest fields using the validator tags.
// Call after binding the JSON body.
func (r *AskRequest) Validate() error {
	return ragValidate.Struct(r)
}

// EnsureDefaults populates RequestID, Timestamp and Limit when the client
// omitted them.
func (r *AskRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = generateUUID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	if r.Limit == 0 {
		r.Limit = DefaultResultLimit
	}
}

// EnsureSessionID returns the request's session id, minting a new one when
// the client did not supply one. The request is updated in place.
func (r *AskRequest) EnsureSessionID() string {
	if r.SessionID == "" {
		r.SessionID = generateUUID()
	}
	return r.SessionID
}

// =============================================================================
// Answer Types
// =============================================================================

// AnswerTiming carries the per-phase wall-clock durations of a RAG answer,
// in milliseconds.
type AnswerTiming struct {
	TotalMs  int64 `json:"total_ms"`
	SearchMs int64 `json:"search_ms"`
	LLMMs    int64 `json:"llm_ms"`
}

// RagAnswer is the structured result of an organization-scoped RAG answer.
//
// Constructed once per request by the orchestrator and returned directly to
// the caller; it is never mutated after assembly. Sources preserve retrieval
// order. Thoughts is a templated rationale, present only when requested.
type RagAnswer struct {
	Query    string         `json:"query"`
	Answer   string         `json:"answer"`
	Sources  []SearchResult `json:"sources"`
	Thoughts string         `json:"thoughts,omitempty"`
	Timing   AnswerTiming   `json:"timing"`
}

// AskResponse is the envelope for POST /v1/ask.
type AskResponse struct {
	ResponseID string     `json:"response_id"`
	RequestID  string     `json:"request_id"`
	SessionID  string     `json:"session_id"`
	Timestamp  int64      `json:"timestamp"`
	Result     *RagAnswer `json:"result"`
}

// NewAskResponse wraps a RagAnswer with response identification.
func NewAskResponse(requestID, sessionID string, result *RagAnswer) *AskResponse {
	return &AskResponse{
		ResponseID: generateUUID(),
		RequestID:  requestID,
		SessionID:  sessionID,
		Timestamp:  time.Now().UnixMilli(),
		Result:     result,
	}
}
