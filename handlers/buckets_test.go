// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runListBuckets(t *testing.T, lister BucketLister, scope gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.GET("/v1/buckets", scope, HandleListBuckets(lister))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/buckets", nil))
	return w
}

func TestHandleListBuckets_AdminSeesAll(t *testing.T) {
	identity, orgCtx := adminScope()
	lister := &fakeBucketLister{buckets: sampleBuckets()}

	w := runListBuckets(t, lister, withScope(identity, orgCtx))

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.BucketListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Buckets, 3)
	assert.Equal(t, "Austin Industries Contracts", body.Buckets[0].Name)
}

func TestHandleListBuckets_MemberSeesOwnOnly(t *testing.T) {
	identity, orgCtx := memberScope()
	lister := &fakeBucketLister{buckets: sampleBuckets()}

	w := runListBuckets(t, lister, withScope(identity, orgCtx))

	require.Equal(t, http.StatusOK, w.Code)
	var body datatypes.BucketListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Buckets, 1)
	assert.Equal(t, "1", body.Buckets[0].ID)
}

func TestHandleListBuckets_UpstreamFailureIsNotEmptyList(t *testing.T) {
	identity, orgCtx := memberScope()
	lister := &fakeBucketLister{err: errors.New("connection refused")}

	w := runListBuckets(t, lister, withScope(identity, orgCtx))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeError(t, w)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
}

func TestHandleListBuckets_NoScopeIsUnauthorized(t *testing.T) {
	lister := &fakeBucketLister{buckets: sampleBuckets()}
	router := gin.New()
	router.GET("/v1/buckets", HandleListBuckets(lister))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/buckets", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
