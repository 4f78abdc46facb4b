// Package llm defines the completion backend interface for the gateway.
package llm

import (
	"context"
	"fmt"
)

// Message is one chat turn sent to the completion backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams are the optional sampling parameters for a completion.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// CompletionError is a non-success response from the completion backend.
// The upstream status is preserved for diagnostics.
type CompletionError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion backend returned status %d: %s", e.StatusCode, e.Message)
}

// LLMClient is the standard interface for any completion backend.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation: an abandoned request (caller disconnect) should cancel the
// in-flight upstream call rather than returning truncated output.
type LLMClient interface {
	// Chat runs a full chat completion over the message sequence.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)

	// ChatStream runs a streaming completion, invoking onDelta for each
	// content delta in arrival order and returning the reassembled full
	// text — the same shape Chat would have produced — so both paths
	// persist identical transcripts. A non-nil error from onDelta aborts
	// the stream.
	ChatStream(ctx context.Context, messages []Message, params GenerationParams,
		onDelta func(delta string) error) (string, error)
}
