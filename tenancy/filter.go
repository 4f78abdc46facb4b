// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"strings"

	"github.com/qig-labs/insight-gateway/datatypes"
)

// bucketPatterns maps an organization's display name to the case-insensitive
// substring patterns that select its buckets. An organization without an
// entry uses its own display name as the sole pattern — that is the fallback
// policy, not an error.
var bucketPatterns = map[string][]string{
	"Austin Industries": {"austin industries"},
	"Spinakr":           {"spinakr", "spinakr ads"},
	"QIG":               {"qig"},
}

// PatternsFor returns the filter patterns for an organization display name,
// lower-cased and ready for substring matching.
func PatternsFor(orgName string) []string {
	patterns, ok := bucketPatterns[orgName]
	if !ok {
		patterns = []string{orgName}
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return lowered
}

// FilterBuckets narrows the bucket list to the organization context's scope.
//
// # Description
//
// Privileged admins see every bucket unchanged. Other callers keep a bucket
// iff its name contains at least one of the active organization's patterns
// as a case-insensitive substring. The filter is stable: buckets that pass
// keep their input order, and the input slice is never mutated. An
// unassigned context (empty active organization name) sees no buckets at
// all. Missing bucket names behave as empty strings; the filter never
// panics.
func FilterBuckets(buckets []datatypes.Bucket, orgCtx *OrgContext) []datatypes.Bucket {
	if orgCtx.IsPrivilegedAdmin {
		return buckets
	}
	if orgCtx.ActiveOrgName == "" {
		return []datatypes.Bucket{}
	}

	patterns := PatternsFor(orgCtx.ActiveOrgName)
	filtered := make([]datatypes.Bucket, 0, len(buckets))
	for _, bucket := range buckets {
		name := strings.ToLower(bucket.Name)
		for _, pattern := range patterns {
			if strings.Contains(name, pattern) {
				filtered = append(filtered, bucket)
				break
			}
		}
	}
	return filtered
}
