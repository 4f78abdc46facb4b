// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services provides the business logic services for the gateway.
//
// This package contains service structs that encapsulate business logic,
// separating it from HTTP handlers. Services are responsible for:
//   - Orchestrating calls to external services (document search, LLM)
//   - Applying business rules and validation
//   - Categorizing failures into typed errors for the handlers
//
// Services are designed to be:
//   - Testable: Dependencies are injected via constructors
//   - Stateless: All state arrives with the request
//   - Traceable: All methods accept context for distributed tracing
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/llm"
	"github.com/qig-labs/insight-gateway/search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ragTracer is the OpenTelemetry tracer for RagOrchestrator operations.
var ragTracer = otel.Tracer("insightgw.services.rag")

// Compile-time interface implementation check.
var _ DocumentSearcher = (*search.Client)(nil)

// =============================================================================
// Interfaces
// =============================================================================

// DocumentSearcher defines the contract for scoped content search against the
// document search service.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation. Results are expected in relevance-descending order as ranked
// upstream; the orchestrator does not re-rank.
type DocumentSearcher interface {
	// Search runs a top-limit content search inside one bucket.
	//
	// # Outputs
	//
	//   - []datatypes.SearchResult: Normalized results in upstream order.
	//     An empty slice is a valid outcome (no hits), distinct from an
	//     error.
	//   - error: *search.UpstreamError for non-2xx responses,
	//     *search.ErrMalformedEnvelope when the response lacks a results
	//     array, wrapped errors for transport failures.
	Search(ctx context.Context, bucketID int, query string, limit int) ([]datatypes.SearchResult, error)
}

// =============================================================================
// RagOrchestrator
// =============================================================================

// groundingPrompt is the fixed system instruction for grounded answers. The
// model may only use the numbered context block and must cite by index.
const groundingPrompt = `You are a document assistant. Answer the question using ONLY the numbered context passages below. Cite the passages you used by their index, like [1] or [2]. If the context does not contain enough information to answer, say so explicitly instead of guessing.`

// RagOrchestrator answers questions over an organization's document buckets.
// It orchestrates the flow between:
//   - Document search service: retrieves scored document chunks
//   - LLM client: generates an answer grounded in the retrieved chunks
//
// The orchestrator is stateless; bucket visibility is decided by the caller
// before Answer is invoked. Phases run strictly sequentially (generation
// depends on retrieval output) with no retries: a phase failure aborts the
// whole request with that phase's error kind.
//
// Usage:
//
//	orch := NewRagOrchestrator(searchClient, llmClient)
//	answer, err := orch.Answer(ctx, &req)
type RagOrchestrator struct {
	searcher  DocumentSearcher
	llmClient llm.LLMClient
}

// NewRagOrchestrator creates a RagOrchestrator with the provided
// dependencies. Both must be non-nil, fully configured clients; construction
// of the clients themselves (and the validation of their configuration)
// happens at process startup.
func NewRagOrchestrator(searcher DocumentSearcher, llmClient llm.LLMClient) *RagOrchestrator {
	return &RagOrchestrator{
		searcher:  searcher,
		llmClient: llmClient,
	}
}

// =============================================================================
// Core Processing Methods
// =============================================================================

// Answer handles a RAG answer request end-to-end.
//
// # Description
//
// The processing flow is:
//  1. Retrieval: top-limit content search scoped to the request's bucket
//  2. Context assembly: normalize results into a numbered context block
//  3. Prompt construction: grounding instruction, optional history, query
//  4. Generation: chat completion over the assembled turn sequence
//  5. Assembly: build the RagAnswer with sources, timing and optional
//     thoughts
//
// Each network phase's wall-clock duration is captured independently and
// returned in the answer's Timing. On failure the caller gets an error, not
// partial timing.
//
// # Inputs
//
//   - ctx: Context for cancellation, timeouts, and tracing. If the caller
//     disconnects mid-generation the in-flight completion is abandoned and
//     partial output discarded.
//   - req: The AskRequest. Must have a non-empty Query and a BucketID that
//     parses to an integer collection identifier; violations fail with
//     *InvalidRequestError before any network call. Defaults are populated
//     in place.
//
// # Outputs
//
//   - *datatypes.RagAnswer: Answer text, sources in retrieval order, per
//     phase timing, and a templated Thoughts line when requested.
//   - error: *InvalidRequestError, *RetrievalError, or *GenerationError.
//
// The method is safe for concurrent use - it does not modify shared state.
func (o *RagOrchestrator) Answer(ctx context.Context, req *datatypes.AskRequest) (*datatypes.RagAnswer, error) {
	ctx, span := ragTracer.Start(ctx, "RagOrchestrator.Answer")
	defer span.End()

	req.EnsureDefaults()
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("request.bucket_id", req.BucketID),
	)

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, &InvalidRequestError{Message: err.Error()}
	}

	bucketID, err := strconv.Atoi(req.BucketID)
	if err != nil {
		span.SetStatus(codes.Error, "non-integer bucket id")
		return nil, &InvalidRequestError{Message: fmt.Sprintf("bucket_id %q is not an integer collection identifier", req.BucketID)}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = datatypes.DefaultResultLimit
	}
	if limit > datatypes.MaxResultLimit {
		limit = datatypes.MaxResultLimit
	}

	slog.Info("Processing RAG answer request",
		"requestId", req.RequestID,
		"bucketId", bucketID,
		"limit", limit,
		"useHistory", req.UseConversationContext,
	)

	totalStart := time.Now()

	// Phase 1: retrieval.
	sources, searchMs, err := o.retrieve(ctx, bucketID, req.Query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.sources_count", len(sources)))

	// Phase 2: context assembly.
	contextBlock := buildContextBlock(ctx, sources)

	// Phase 3: prompt construction.
	messages := buildMessages(req, contextBlock)
	span.SetAttributes(attribute.Int("prompt.messages", len(messages)))

	// Phase 4: generation.
	answerText, llmMs, err := o.generate(ctx, messages, req.Temperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}

	// Phase 5: assembly.
	answer := &datatypes.RagAnswer{
		Query:   req.Query,
		Answer:  answerText,
		Sources: sources,
		Timing: datatypes.AnswerTiming{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			SearchMs: searchMs,
			LLMMs:    llmMs,
		},
	}
	if req.IncludeThoughts {
		// Report history usage as buildMessages decided it, not as requested.
		usedHistory := req.UseConversationContext && len(req.History) > 1
		answer.Thoughts = buildThoughts(len(sources), usedHistory)
	}

	span.SetAttributes(
		attribute.Int64("timing.total_ms", answer.Timing.TotalMs),
		attribute.Int64("timing.search_ms", answer.Timing.SearchMs),
		attribute.Int64("timing.llm_ms", answer.Timing.LLMMs),
	)
	return answer, nil
}

// =============================================================================
// Private Methods
// =============================================================================

// retrieve runs the retrieval phase and categorizes its failures.
//
// A well-formed empty result array is a success with zero sources. A missing
// results array, a non-2xx status, or a transport failure all surface as
// *RetrievalError so the caller can tell "no hits" from "search broken".
func (o *RagOrchestrator) retrieve(ctx context.Context, bucketID int, query string, limit int) ([]datatypes.SearchResult, int64, error) {
	ctx, span := ragTracer.Start(ctx, "RagOrchestrator.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.Int("bucket_id", bucketID),
		attribute.Int("limit", limit),
	)

	start := time.Now()
	sources, err := o.searcher.Search(ctx, bucketID, query, limit)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		var upstream *search.UpstreamError
		if errors.As(err, &upstream) {
			return nil, 0, &RetrievalError{StatusCode: upstream.StatusCode, Message: upstream.Message}
		}
		var malformed *search.ErrMalformedEnvelope
		if errors.As(err, &malformed) {
			return nil, 0, &RetrievalError{StatusCode: http.StatusBadGateway, Message: malformed.Detail}
		}
		return nil, 0, &RetrievalError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	if sources == nil {
		sources = []datatypes.SearchResult{}
	}
	span.SetAttributes(attribute.Int("sources_count", len(sources)))
	return sources, elapsed, nil
}

// generate runs the generation phase and categorizes its failures.
func (o *RagOrchestrator) generate(ctx context.Context, messages []llm.Message, temperature float32) (string, int64, error) {
	ctx, span := ragTracer.Start(ctx, "RagOrchestrator.generate")
	defer span.End()

	params := llm.GenerationParams{}
	if temperature > 0 {
		params.Temperature = &temperature
	}

	start := time.Now()
	text, err := o.llmClient.Chat(ctx, messages, params)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		var completion *llm.CompletionError
		if errors.As(err, &completion) {
			return "", 0, &GenerationError{StatusCode: completion.StatusCode, Message: completion.Message}
		}
		return "", 0, &GenerationError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	return text, elapsed, nil
}

// =============================================================================
// Prompt Assembly
// =============================================================================

// buildContextBlock enumerates sources as "[index] fileName: text" in
// retrieval order. Index is 1-based to match the citation instruction.
func buildContextBlock(ctx context.Context, sources []datatypes.SearchResult) string {
	_, span := ragTracer.Start(ctx, "RagOrchestrator.buildContextBlock")
	defer span.End()

	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, src.FileName, src.Text)
	}
	span.SetAttributes(attribute.Int("context.bytes", b.Len()))
	return b.String()
}

// buildMessages assembles the turn sequence for the completion call.
//
// History is included only when the request opts in and has more than one
// prior turn; in that case every turn except the most recent is appended in
// original order, restricted to user and assistant roles. Any other role is
// dropped silently. The current query is always the final user turn.
func buildMessages(req *datatypes.AskRequest, contextBlock string) []llm.Message {
	system := groundingPrompt
	if contextBlock != "" {
		system += "\n\nContext:\n" + contextBlock
	} else {
		system += "\n\nContext: (no passages were retrieved)"
	}

	messages := []llm.Message{{Role: "system", Content: system}}
	if req.UseConversationContext && len(req.History) > 1 {
		for _, turn := range req.History[:len(req.History)-1] {
			if turn.Role != "user" && turn.Role != "assistant" {
				continue
			}
			messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
		}
	}
	messages = append(messages, llm.Message{Role: "user", Content: req.Query})
	return messages
}

// buildThoughts synthesizes the one-line retrieval rationale. This is a
// templated string, not a second model call.
func buildThoughts(sourceCount int, usedHistory bool) string {
	historyNote := "without conversation context"
	if usedHistory {
		historyNote = "with conversation context"
	}
	return fmt.Sprintf("Answer grounded in %d retrieved source(s), generated %s.", sourceCount, historyNote)
}
