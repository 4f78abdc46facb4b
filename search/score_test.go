// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractScore_PrimaryWinsRegardlessOfMagnitude(t *testing.T) {
	rec := &Record{
		Score:    0.2,
		Metadata: map[string]any{"score": 0.9},
	}

	score, provenance := ExtractScore(rec)

	assert.Equal(t, 0.2, score)
	assert.Equal(t, ProvenancePrimary, provenance)
}

func TestExtractScore_PrecedenceOrder(t *testing.T) {
	tests := []struct {
		name           string
		rec            Record
		wantScore      float64
		wantProvenance string
	}{
		{
			name:           "relevance when primary absent",
			rec:            Record{RelevanceScore: 0.7, RankingScore: 0.3},
			wantScore:      0.7,
			wantProvenance: ProvenanceRelevance,
		},
		{
			name:           "ranking when earlier absent",
			rec:            Record{RankingScore: 0.3, Metadata: map[string]any{"score": 0.8}},
			wantScore:      0.3,
			wantProvenance: ProvenanceRanking,
		},
		{
			name:           "metadata when earlier absent",
			rec:            Record{Metadata: map[string]any{"score": 0.8}},
			wantScore:      0.8,
			wantProvenance: ProvenanceMetadata,
		},
		{
			name:           "annotation last",
			rec:            Record{SearchAnnotation: &SearchAnnotation{Score: 0.4}},
			wantScore:      0.4,
			wantProvenance: ProvenanceAnnotation,
		},
		{
			name:           "nothing set",
			rec:            Record{},
			wantScore:      0,
			wantProvenance: ProvenanceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, provenance := ExtractScore(&tt.rec)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantProvenance, provenance)
		})
	}
}

func TestExtractScore_NonNumericFieldsAreSkipped(t *testing.T) {
	rec := &Record{
		Score:          "0.95", // string, not a number
		RelevanceScore: math.NaN(),
		RankingScore:   math.Inf(1),
		Metadata:       map[string]any{"score": 0.5},
	}

	score, provenance := ExtractScore(rec)

	assert.Equal(t, 0.5, score)
	assert.Equal(t, ProvenanceMetadata, provenance)
}

func TestExtractScore_ZeroIsAValidScore(t *testing.T) {
	rec := &Record{Score: 0.0, RelevanceScore: 0.9}

	score, provenance := ExtractScore(rec)

	assert.Equal(t, 0.0, score)
	assert.Equal(t, ProvenancePrimary, provenance)
}

func TestNormalize_TextFallsBackToSuggested(t *testing.T) {
	rec := &Record{
		DocumentID:    "doc-1",
		FileName:      "contract.pdf",
		SuggestedText: "suggested body",
		Score:         0.6,
	}

	result := Normalize(rec)

	assert.Equal(t, "suggested body", result.Text)
	assert.Equal(t, 0.6, result.Score)
	assert.Equal(t, ProvenancePrimary, result.ScoreProvenance)
}

func TestNormalize_PrimaryTextPreferred(t *testing.T) {
	rec := &Record{Text: "primary body", SuggestedText: "suggested body"}

	result := Normalize(rec)

	assert.Equal(t, "primary body", result.Text)
	assert.Equal(t, ProvenanceDefault, result.ScoreProvenance)
}
