// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withScope injects a verified identity and resolved organization scope, the
// way the auth and org middlewares would.
func withScope(identity *auth.Identity, orgCtx *tenancy.OrgContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, identity)
		middleware.SetOrgContext(c, orgCtx)
		c.Next()
	}
}

func adminScope() (*auth.Identity, *tenancy.OrgContext) {
	return &auth.Identity{SubjectID: "subj-admin", Email: "admin@qig.example"},
		&tenancy.OrgContext{
			HomeOrgID:         tenancy.AdminOrgID,
			HomeOrgName:       tenancy.AdminOrgName,
			ActiveOrgID:       tenancy.AdminOrgID,
			ActiveOrgName:     tenancy.AdminOrgName,
			IsPrivilegedAdmin: true,
		}
}

func memberScope() (*auth.Identity, *tenancy.OrgContext) {
	return &auth.Identity{SubjectID: "subj-austin", Email: "user@austin.example"},
		&tenancy.OrgContext{
			HomeOrgID:     "org-austin",
			HomeOrgName:   "Austin Industries",
			ActiveOrgID:   "org-austin",
			ActiveOrgName: "Austin Industries",
		}
}

// fakeBucketLister returns a canned bucket list.
type fakeBucketLister struct {
	buckets []datatypes.Bucket
	err     error
}

func (f *fakeBucketLister) ListBuckets(_ context.Context) ([]datatypes.Bucket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buckets, nil
}

func sampleBuckets() []datatypes.Bucket {
	return []datatypes.Bucket{
		{ID: "1", Name: "Austin Industries Contracts", DocumentCount: 12},
		{ID: "2", Name: "QIG Internal", DocumentCount: 3},
		{ID: "3", Name: "Spinakr Ads", DocumentCount: 8},
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) datatypes.ErrorResponse {
	t.Helper()
	var body datatypes.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
