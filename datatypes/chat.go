// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains request and response types for the direct chat
// endpoints (non-RAG passthrough to the completion backend). For RAG answer
// types, see rag.go.
package datatypes

import "time"

// =============================================================================
// Direct Chat Request Types
// =============================================================================

// DirectChatRequest is the request body for POST /v1/chat/direct and
// POST /v1/chat/stream.
//
// # Fields
//
//   - RequestID: Optional. UUID v4, generated server-side when absent.
//   - Timestamp: Optional. Unix milliseconds (UTC), stamped when absent.
//   - Messages: Required. 1-100 turns, chronological order. Content is
//     limited to 16KB per message.
//   - SessionID: Optional. When set, the final question/answer turn is
//     persisted under this session.
//   - Temperature: Optional. Sampling temperature.
//   - MaxTokens: Optional. Completion token cap.
type DirectChatRequest struct {
	RequestID   string    `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp   int64     `json:"timestamp" validate:"gte=0"`
	Messages    []Message `json:"messages" validate:"required,min=1,max=100,dive"`
	SessionID   string    `json:"session_id"`
	Temperature float32   `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int       `json:"max_tokens" validate:"gte=0"`
}

// Validate validates the DirectChatRequest fields. Call after binding.
func (r *DirectChatRequest) Validate() error {
	return ragValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp when the client omitted
// them.
func (r *DirectChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = generateUUID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// =============================================================================
// Direct Chat Response Types
// =============================================================================

// DirectChatResponse is the response for a direct chat request. The streaming
// endpoint reassembles its deltas into the same Answer shape before the turn
// is persisted, so both paths store identical transcripts.
type DirectChatResponse struct {
	ResponseID       string `json:"response_id"`
	RequestID        string `json:"request_id"`
	Timestamp        int64  `json:"timestamp"`
	Answer           string `json:"answer"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
}

// NewDirectChatResponse creates a DirectChatResponse with a fresh response id
// and timestamp, echoing the request id for correlation.
func NewDirectChatResponse(requestID, answer string) *DirectChatResponse {
	return &DirectChatResponse{
		ResponseID: generateUUID(),
		RequestID:  requestID,
		Timestamp:  time.Now().UnixMilli(),
		Answer:     answer,
	}
}
