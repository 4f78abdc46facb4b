// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import "math"

// Score provenance tags. ProvenanceDefault marks the fallback zero score,
// which downstream consumers must not confuse with a true zero-relevance
// result.
const (
	ProvenancePrimary    = "primaryScore"
	ProvenanceRelevance  = "relevanceScore"
	ProvenanceRanking    = "rankingScore"
	ProvenanceMetadata   = "metadataScore"
	ProvenanceAnnotation = "searchAnnotationScore"
	ProvenanceDefault    = "default"
)

// scoreAccessor is one named probe into a raw search record. Accessors
// return the numeric value and whether the field held a finite number.
type scoreAccessor struct {
	tag string
	get func(rec *Record) (float64, bool)
}

// scoreAccessors is the fixed precedence order for score extraction. The
// upstream search service carries several redundant scoring mechanisms; the
// first finite numeric field in this order wins regardless of magnitude, so
// the order must not be rearranged.
var scoreAccessors = []scoreAccessor{
	{ProvenancePrimary, func(rec *Record) (float64, bool) {
		return asFiniteNumber(rec.Score)
	}},
	{ProvenanceRelevance, func(rec *Record) (float64, bool) {
		return asFiniteNumber(rec.RelevanceScore)
	}},
	{ProvenanceRanking, func(rec *Record) (float64, bool) {
		return asFiniteNumber(rec.RankingScore)
	}},
	{ProvenanceMetadata, func(rec *Record) (float64, bool) {
		if rec.Metadata == nil {
			return 0, false
		}
		return asFiniteNumber(rec.Metadata["score"])
	}},
	{ProvenanceAnnotation, func(rec *Record) (float64, bool) {
		if rec.SearchAnnotation == nil {
			return 0, false
		}
		return asFiniteNumber(rec.SearchAnnotation.Score)
	}},
}

// asFiniteNumber reports whether the decoded JSON value is a finite number.
// JSON numbers decode as float64; anything else (strings, booleans, null)
// does not qualify.
func asFiniteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ExtractScore derives a record's relevance score and its provenance.
//
// The accessors are tried in their fixed precedence order; the first finite
// number wins and its tag is returned. When no field qualifies the score is
// 0 with ProvenanceDefault.
func ExtractScore(rec *Record) (float64, string) {
	for _, accessor := range scoreAccessors {
		if value, ok := accessor.get(rec); ok {
			return value, accessor.tag
		}
	}
	return 0, ProvenanceDefault
}
