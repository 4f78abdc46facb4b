// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetSessionSchema returns the class definition for chat sessions.
func GetSessionSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "Session",
		Description: "A chat session with a rolling summary.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				Description:     "Client-facing session identifier.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "org_id",
				DataType:        []string{"text"},
				Description:     "Organization the session was created under.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "summary",
				DataType:    []string{"text"},
				Description: "Short summary of the session.",
			},
			{
				Name:            "timestamp",
				DataType:        []string{"number"},
				Description:     "Unix ms creation time.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// GetConversationSchema returns the class definition for conversation turns.
func GetConversationSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "Conversation",
		Description: "A single question/answer turn within a session.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{Name: "question", DataType: []string{"text"}},
			{Name: "answer", DataType: []string{"text"}},
			{
				Name:            "timestamp",
				DataType:        []string{"number"},
				IndexFilterable: indexFilterable,
			},
			{
				Name:        "inSession",
				DataType:    []string{"Session"},
				Description: "Graph link to the parent Session object.",
			},
		},
	}
}

// GetOrganizationSchema returns the class definition for tenant organizations.
func GetOrganizationSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "Organization",
		Description: "A tenant organization known to the gateway.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "org_id",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{Name: "display_name", DataType: []string{"text"}},
			{
				Name:            "tier",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// GetTenantAssignmentSchema returns the class definition linking subjects to
// their home organization.
func GetTenantAssignmentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "TenantAssignment",
		Description: "Assignment of an identity subject to an organization.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "subject_id",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "org_id",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "active",
				DataType:        []string{"boolean"},
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureWeaviateSchema creates the gateway's classes if they do not already
// exist. Failures are logged, not fatal; the gateway degrades to serving
// without transcript persistence.
func EnsureWeaviateSchema(client *weaviate.Client) {
	ctx := context.Background()
	for _, class := range []*models.Class{
		GetSessionSchema(),
		GetConversationSchema(),
		GetOrganizationSchema(),
		GetTenantAssignmentSchema(),
	} {
		exists, err := client.Schema().ClassExistenceChecker().
			WithClassName(class.Class).
			Do(ctx)
		if err != nil {
			slog.Error("Failed to check Weaviate class existence",
				"class", class.Class, "error", err)
			continue
		}
		if exists {
			continue
		}
		if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			slog.Error("Failed to create Weaviate class",
				"class", class.Class, "error", err)
			continue
		}
		slog.Info("Created Weaviate class", "class", class.Class)
	}
}
