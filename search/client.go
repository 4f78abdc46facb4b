// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package search is the client for the document-search service.
//
// The gateway consumes two upstream operations: the bucket listing and the
// scoped content search. Upstream records are normalized into
// datatypes.SearchResult here, including the score extraction with
// provenance (see score.go), so the orchestrator and any direct search
// surface share identical result shapes.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qig-labs/insight-gateway/datatypes"
)

// UpstreamError is a non-success response from the document-search service.
// The status code is preserved for diagnostics; the body never contains
// caller credentials.
type UpstreamError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("search service returned status %d: %s", e.StatusCode, e.Message)
}

// ErrMalformedEnvelope marks a well-formed HTTP response whose body lacks
// the results array. Distinguishable from an empty result set: "no hits" is
// a valid empty-array success, a missing array means the search subsystem is
// broken.
type ErrMalformedEnvelope struct {
	Detail string
}

// Error implements the error interface.
func (e *ErrMalformedEnvelope) Error() string {
	return fmt.Sprintf("malformed search envelope: %s", e.Detail)
}

// =============================================================================
// Raw Upstream Types
// =============================================================================

// Record is one raw result from the search service. Score fields decode as
// any because the upstream populates an inconsistent subset of them per
// deployment; ExtractScore resolves the precedence.
type Record struct {
	DocumentID       string            `json:"document_id"`
	FileName         string            `json:"file_name"`
	Text             string            `json:"text"`
	SuggestedText    string            `json:"suggested_text"`
	Score            any               `json:"score"`
	RelevanceScore   any               `json:"relevance_score"`
	RankingScore     any               `json:"ranking_score"`
	Metadata         map[string]any    `json:"metadata"`
	SearchAnnotation *SearchAnnotation `json:"search_annotation"`
	Highlights       []string          `json:"highlights"`
}

// SearchAnnotation is the nested annotation block some deployments attach.
type SearchAnnotation struct {
	Score any `json:"score"`
}

// searchEnvelope is the upstream response. Results stays a RawMessage so a
// missing array is detectable after decoding.
type searchEnvelope struct {
	Results json.RawMessage `json:"results"`
}

// rawBucket is the upstream bucket record; the gateway renames its fields
// into datatypes.Bucket.
type rawBucket struct {
	BucketID    json.Number `json:"bucket_id"`
	DisplayName string      `json:"display_name"`
	FileCount   int         `json:"file_count"`
}

type bucketEnvelope struct {
	Buckets []rawBucket `json:"buckets"`
}

// =============================================================================
// Client
// =============================================================================

// Client talks to the document-search service.
//
// Constructed once at startup with a validated base URL; safe for concurrent
// use. No retries anywhere — an upstream failure propagates to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. An unparsable URL is a
// startup error.
func NewClient(baseURL string) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid search service URL %q", baseURL)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: time.Minute},
	}, nil
}

// ListBuckets returns every bucket the search service exposes, renamed into
// the gateway's shape. Scoping to the caller's organization happens in the
// tenancy filter, not here.
func (c *Client) ListBuckets(ctx context.Context) ([]datatypes.Bucket, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/buckets", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bucket listing failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope bucketEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse bucket response: %w", err)
	}

	buckets := make([]datatypes.Bucket, 0, len(envelope.Buckets))
	for _, raw := range envelope.Buckets {
		buckets = append(buckets, datatypes.Bucket{
			ID:            raw.BucketID.String(),
			Name:          raw.DisplayName,
			DocumentCount: raw.FileCount,
		})
	}
	return buckets, nil
}

// searchRequest is the body sent to the content search endpoint.
type searchRequest struct {
	BucketID    int    `json:"bucketId"`
	Query       string `json:"query"`
	ResultCount int    `json:"resultCount"`
}

// Search runs a top-limit content search scoped to the bucket and returns
// normalized results in retrieval order.
//
// An empty results array is a valid zero-hit success. A response without a
// results array returns *ErrMalformedEnvelope; a non-success status returns
// *UpstreamError.
func (c *Client) Search(ctx context.Context, bucketID int, query string, limit int) ([]datatypes.SearchResult, error) {
	payload, err := json.Marshal(searchRequest{
		BucketID:    bucketID,
		Query:       query,
		ResultCount: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ErrMalformedEnvelope{Detail: err.Error()}
	}
	if len(envelope.Results) == 0 || string(envelope.Results) == "null" {
		return nil, &ErrMalformedEnvelope{Detail: "response has no results array"}
	}

	var records []Record
	if err := json.Unmarshal(envelope.Results, &records); err != nil {
		return nil, &ErrMalformedEnvelope{Detail: err.Error()}
	}

	results := make([]datatypes.SearchResult, 0, len(records))
	for i := range records {
		results = append(results, Normalize(&records[i]))
	}
	return results, nil
}
