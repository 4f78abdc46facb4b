// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// ErrorResponse is the uniform failure envelope for every endpoint.
//
// Success is always false. Error carries a human-readable message that never
// includes raw credentials. Timestamp is Unix milliseconds (UTC). A failure is
// never flattened into a success envelope with empty data; a broken search
// call must not present as "zero results".
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
}

// NewErrorResponse builds the failure envelope with the current timestamp.
func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now().UnixMilli(),
	}
}
