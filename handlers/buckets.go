// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/middleware"
	"github.com/qig-labs/insight-gateway/tenancy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// handlerTracer is the OpenTelemetry tracer for gateway handlers.
var handlerTracer = otel.Tracer("insightgw.handlers")

// BucketLister lists the document collections exposed by the document-search
// service. Implemented by *search.Client; abstracted for handler tests.
type BucketLister interface {
	ListBuckets(ctx context.Context) ([]datatypes.Bucket, error)
}

// HandleListBuckets returns the buckets visible to the caller's organization
// scope.
//
// The upstream list is fetched in full and narrowed with the bucket filter:
// privileged admins see everything, everyone else sees only buckets whose
// names match their organization's patterns. An upstream failure is reported
// as a 502, never as an empty list.
func HandleListBuckets(lister BucketLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleListBuckets")
		defer span.End()

		orgCtx := middleware.GetOrgContext(c)
		if orgCtx == nil {
			c.JSON(http.StatusUnauthorized, datatypes.NewErrorResponse("missing credentials"))
			return
		}

		buckets, err := lister.ListBuckets(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bucket listing failed")
			slog.Error("Failed to list buckets from document search", "error", err)
			c.JSON(http.StatusBadGateway, datatypes.NewErrorResponse("document search unavailable"))
			return
		}

		visible := tenancy.FilterBuckets(buckets, orgCtx)
		span.SetAttributes(
			attribute.Int("buckets.upstream", len(buckets)),
			attribute.Int("buckets.visible", len(visible)),
			attribute.String("org.active_id", orgCtx.ActiveOrgID),
		)

		c.JSON(http.StatusOK, datatypes.BucketListResponse{
			Buckets: visible,
			Total:   len(visible),
		})
	}
}
