// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/qig-labs/insight-gateway/datatypes"
)

// ErrNotFound is returned by Directory lookups when no matching record
// exists. Callers must distinguish it from transport failures.
var ErrNotFound = errors.New("not found")

// Organization is a tenant configuration record.
type Organization struct {
	ID          string
	DisplayName string
	Tier        string
}

// Directory is the tenant configuration storage the resolver consults.
//
// Implementations must be safe for concurrent use. Lookups return
// ErrNotFound (possibly wrapped) when no record exists and other errors for
// storage failures; the resolver treats both the same way, but switch
// commands report them differently.
type Directory interface {
	// AssignmentForSubject returns the organization of the subject's first
	// active assignment.
	AssignmentForSubject(ctx context.Context, subjectID string) (*Organization, error)

	// OrganizationByID returns the organization record for the given id.
	OrganizationByID(ctx context.Context, orgID string) (*Organization, error)
}

// =============================================================================
// Weaviate-backed Directory
// =============================================================================

// WeaviateDirectory reads tenant configuration from the TenantAssignment and
// Organization classes.
type WeaviateDirectory struct {
	client *weaviate.Client
}

// NewWeaviateDirectory creates a directory over the given client. The client
// must not be nil.
func NewWeaviateDirectory(client *weaviate.Client) *WeaviateDirectory {
	return &WeaviateDirectory{client: client}
}

// assignmentQueryResponse is the parsed shape of a TenantAssignment query.
type assignmentQueryResponse struct {
	Get struct {
		TenantAssignment []struct {
			SubjectID string `json:"subject_id"`
			OrgID     string `json:"org_id"`
			Active    bool   `json:"active"`
		} `json:"TenantAssignment"`
	} `json:"Get"`
}

// organizationQueryResponse is the parsed shape of an Organization query.
type organizationQueryResponse struct {
	Get struct {
		Organization []struct {
			OrgID       string `json:"org_id"`
			DisplayName string `json:"display_name"`
			Tier        string `json:"tier"`
		} `json:"Organization"`
	} `json:"Get"`
}

// activeAssignmentFilter matches the subject's assignments that are still
// active. Inactive assignments are retained for audit and must not resolve.
func activeAssignmentFilter(subjectID string) *filters.WhereBuilder {
	return filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"subject_id"}).
				WithOperator(filters.Equal).
				WithValueString(subjectID),
			filters.Where().
				WithPath([]string{"active"}).
				WithOperator(filters.Equal).
				WithValueBoolean(true),
		})
}

// AssignmentForSubject looks up the subject's active assignment and joins it
// to its organization record. The first active assignment wins when several
// exist.
func (d *WeaviateDirectory) AssignmentForSubject(ctx context.Context, subjectID string) (*Organization, error) {
	where := activeAssignmentFilter(subjectID)

	fields := []graphql.Field{
		{Name: "subject_id"},
		{Name: "org_id"},
		{Name: "active"},
	}

	resp, err := d.client.GraphQL().Get().
		WithClassName("TenantAssignment").
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying tenant assignments: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[assignmentQueryResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("error parsing tenant assignment response: %w", err)
	}
	if len(parsed.Get.TenantAssignment) == 0 {
		return nil, fmt.Errorf("no active assignment for subject %s: %w", subjectID, ErrNotFound)
	}

	return d.OrganizationByID(ctx, parsed.Get.TenantAssignment[0].OrgID)
}

// OrganizationByID returns the organization record for the given id, or
// ErrNotFound when it does not exist.
func (d *WeaviateDirectory) OrganizationByID(ctx context.Context, orgID string) (*Organization, error) {
	where := filters.Where().
		WithPath([]string{"org_id"}).
		WithOperator(filters.Equal).
		WithValueString(orgID)

	fields := []graphql.Field{
		{Name: "org_id"},
		{Name: "display_name"},
		{Name: "tier"},
	}

	resp, err := d.client.GraphQL().Get().
		WithClassName("Organization").
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying organizations: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[organizationQueryResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("error parsing organization response: %w", err)
	}
	if len(parsed.Get.Organization) == 0 {
		return nil, fmt.Errorf("organization %s: %w", orgID, ErrNotFound)
	}

	rec := parsed.Get.Organization[0]
	return &Organization{
		ID:          rec.OrgID,
		DisplayName: rec.DisplayName,
		Tier:        rec.Tier,
	}, nil
}

// Compile-time interface compliance check.
var _ Directory = (*WeaviateDirectory)(nil)
