// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// =============================================================================
// Bucket
// =============================================================================

// Bucket is a document collection exposed by the document-search service.
//
// The gateway does not own bucket storage; it only filters the upstream list
// down to the caller's organization scope and renames the upstream fields
// into this shape.
type Bucket struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
}

// BucketListResponse is the envelope for GET /v1/buckets.
type BucketListResponse struct {
	Buckets []Bucket `json:"buckets"`
	Total   int      `json:"total"`
}

// =============================================================================
// Search Result
// =============================================================================

// SearchResult is one retrieved document, normalized from the upstream
// search record.
//
// Score is a best-effort extraction over several redundant upstream scoring
// fields; ScoreProvenance names the field that supplied it. A provenance of
// "default" means no numeric field was found and the zero score must not be
// read as a true zero-relevance result.
type SearchResult struct {
	DocumentID      string         `json:"document_id"`
	FileName        string         `json:"file_name"`
	Text            string         `json:"text"`
	Score           float64        `json:"score"`
	ScoreProvenance string         `json:"score_provenance"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Highlights      []string       `json:"highlights,omitempty"`
}
