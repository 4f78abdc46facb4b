// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import "fmt"

// =============================================================================
// Error Types
// =============================================================================

// InvalidRequestError is returned when a request fails validation before any
// network call is attempted. Handlers map it to HTTP 400.
type InvalidRequestError struct {
	Message string
}

// Error implements the error interface for InvalidRequestError.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// RetrievalError wraps failures of the document search phase.
//
// # Description
//
// RetrievalError provides structured error information for retrieval
// failures, including the upstream HTTP status and message. It is the only
// error kind the retrieval phase produces, which lets handlers and tests
// distinguish "the search subsystem is broken" from a legitimate empty
// result set (a well-formed empty array is a success, not a RetrievalError).
//
// # Fields
//
//   - StatusCode: HTTP status from the document search service. A 502
//     indicates the service answered but with an unusable payload.
//   - Message: Error detail from the upstream response, never raw
//     credentials.
type RetrievalError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for RetrievalError.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval error (status %d): %s", e.StatusCode, e.Message)
}

// GenerationError wraps failures of the language-model completion phase,
// preserving the upstream status for diagnostics.
type GenerationError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for GenerationError.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error (status %d): %s", e.StatusCode, e.Message)
}

// =============================================================================
// Type Assertion Helpers
// =============================================================================

// IsInvalidRequest checks if an error is an InvalidRequestError. Useful for
// handlers to pick the appropriate HTTP status code.
func IsInvalidRequest(err error) bool {
	_, ok := err.(*InvalidRequestError)
	return ok
}

// IsRetrievalError checks if an error is a RetrievalError.
func IsRetrievalError(err error) bool {
	_, ok := err.(*RetrievalError)
	return ok
}

// IsGenerationError checks if an error is a GenerationError.
func IsGenerationError(err error) bool {
	_, ok := err.(*GenerationError)
	return ok
}
