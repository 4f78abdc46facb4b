// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import "github.com/qig-labs/insight-gateway/datatypes"

// Normalize converts a raw upstream record into the gateway's result shape.
//
// The text falls back to the suggested-text field when the primary text is
// absent; the score and its provenance come from ExtractScore. Retrieval
// order is not touched here — the caller preserves it.
func Normalize(rec *Record) datatypes.SearchResult {
	text := rec.Text
	if text == "" {
		text = rec.SuggestedText
	}

	score, provenance := ExtractScore(rec)

	return datatypes.SearchResult{
		DocumentID:      rec.DocumentID,
		FileName:        rec.FileName,
		Text:            text,
		Score:           score,
		ScoreProvenance: provenance,
		Metadata:        rec.Metadata,
		Highlights:      rec.Highlights,
	}
}
