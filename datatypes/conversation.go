// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
)

var convTracer = otel.Tracer("insightgw.datatypes")

// =============================================================================
// Transcript Properties
// =============================================================================

// SessionProperties are the stored fields of a Session object.
type SessionProperties struct {
	SessionID string `json:"session_id"`
	OrgID     string `json:"org_id"`
	Summary   string `json:"summary"`
	Timestamp int64  `json:"timestamp"`
}

// ToMap converts SessionProperties to the map format required by the Weaviate
// client's WithProperties().
func (p *SessionProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id": p.SessionID,
		"org_id":     p.OrgID,
		"summary":    p.Summary,
		"timestamp":  p.Timestamp,
	}
}

// ConversationProperties are the stored fields of a Conversation turn.
type ConversationProperties struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// ToMap converts ConversationProperties to the map format required by the
// Weaviate client's WithProperties().
func (p *ConversationProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id": p.SessionID,
		"question":   p.Question,
		"answer":     p.Answer,
		"timestamp":  p.Timestamp,
	}
}

// =============================================================================
// Query Response Types
// =============================================================================

// SessionQueryResponse is the parsed shape of a Session class query.
type SessionQueryResponse struct {
	Get struct {
		Session []SessionResult `json:"Session"`
	} `json:"Get"`
}

// SessionResult is a single session from a query.
type SessionResult struct {
	SessionID  string `json:"session_id"`
	OrgID      string `json:"org_id"`
	Summary    string `json:"summary"`
	Timestamp  int64  `json:"timestamp"`
	Additional struct {
		ID string `json:"id"`
	} `json:"_additional"`
}

// ConversationQueryResponse is the parsed shape of a Conversation class query.
type ConversationQueryResponse struct {
	Get struct {
		Conversation []ConversationResult `json:"Conversation"`
	} `json:"Get"`
}

// ConversationResult is a single conversation turn from a query.
type ConversationResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// =============================================================================
// Session Lookup / Creation
// =============================================================================

// FindOrCreateSessionUUID finds a Session by its session_id and returns its
// Weaviate UUID, creating the object with a pending summary when absent.
func FindOrCreateSessionUUID(ctx context.Context, client *weaviate.Client,
	sessionID, orgID string) (string, error) {

	ctx, span := convTracer.Start(ctx, "FindOrCreateSessionUUID")
	defer span.End()

	where := filters.Where().
		WithPath([]string{"session_id"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)

	fields := []graphql.Field{
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
	}

	resp, err := client.GraphQL().Get().
		WithClassName("Session").
		WithWhere(where).
		WithFields(fields...).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("error querying for session: %w", err)
	}

	queryResp, err := ParseGraphQLResponse[SessionQueryResponse](resp)
	if err != nil {
		return "", fmt.Errorf("error parsing session query response: %w", err)
	}

	if len(queryResp.Get.Session) > 0 {
		return queryResp.Get.Session[0].Additional.ID, nil
	}

	slog.Info("No existing session found, creating one", "sessionId", sessionID)
	props := SessionProperties{
		SessionID: sessionID,
		OrgID:     orgID,
		Summary:   "(Summary pending...)",
		Timestamp: time.Now().UnixMilli(),
	}

	result, err := client.Data().Creator().
		WithClassName("Session").
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create new session: %w", err)
	}
	if result == nil || result.Object == nil {
		return "", fmt.Errorf("weaviate created a session but returned a nil result")
	}

	return result.Object.ID.String(), nil
}

// =============================================================================
// Conversation Turn Persistence
// =============================================================================

// Conversation is one question/answer turn to persist. Persistence is
// plumbing around the answer pipeline; a save failure is logged and never
// fails the request that produced the turn.
type Conversation struct {
	SessionID string `json:"session_id"`
	OrgID     string `json:"org_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Save writes the turn to Weaviate, linked to its parent Session when the
// session lookup succeeds. Empty answers are skipped.
func (c *Conversation) Save(client *weaviate.Client) error {
	if len(strings.TrimSpace(c.Answer)) == 0 {
		return nil
	}

	parentCtx := context.Background()
	sessionUUID, err := FindOrCreateSessionUUID(parentCtx, client, c.SessionID, c.OrgID)
	if err != nil {
		slog.Error("Failed to find or create parent session, saving turn without graph link",
			"sessionId", c.SessionID, "error", err)
	}

	props := ConversationProperties{
		SessionID: c.SessionID,
		Question:  c.Question,
		Answer:    c.Answer,
		Timestamp: time.Now().UnixMilli(),
	}
	properties := props.ToMap()
	if err == nil {
		WithBeacon(properties, sessionUUID)
	}

	_, err = client.Data().Creator().
		WithClassName("Conversation").
		WithProperties(properties).
		Do(parentCtx)
	if err != nil {
		return fmt.Errorf("failed to save conversation object to Weaviate: %w", err)
	}

	slog.Info("Saved conversation turn", "sessionId", c.SessionID)
	return nil
}

// BeaconRef is a Weaviate cross-reference beacon.
type BeaconRef struct {
	Beacon string `json:"beacon"`
}

// WithBeacon adds an inSession beacon reference to the properties map.
// "weaviate://localhost/" is the standard beacon URI scheme; localhost is a
// protocol identifier, not a real host.
func WithBeacon(props map[string]interface{}, sessionUUID string) {
	props["inSession"] = []BeaconRef{
		{Beacon: fmt.Sprintf("weaviate://localhost/Session/%s", sessionUUID)},
	}
}
