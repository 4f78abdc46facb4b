// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"sync"
	"time"
)

// OverrideTTL is the validity window of an impersonation override. An
// override whose age has reached the window (age >= 24h) is expired.
const OverrideTTL = 24 * time.Hour

// ImpersonationStore holds short-lived acting-as overrides for privileged
// subjects.
//
// At most one live override exists per subject: SetOverride unconditionally
// replaces any prior override with a fresh timestamp. Expiry is evaluated
// lazily on read, not by a background sweep; an expired-but-unread entry
// occupies storage until the next read for that subject. Implementations
// must be safe for concurrent use, though concurrent writes for the same
// subject are last-writer-wins — impersonation switches are low-frequency
// administrative actions.
type ImpersonationStore interface {
	// SetOverride records orgID as the subject's override, replacing any
	// existing one and restarting the validity window.
	SetOverride(subjectID, orgID string)

	// GetOverride returns the subject's live override. An entry at or past
	// the validity window is deleted and reported as absent.
	GetOverride(subjectID string) (string, bool)

	// ClearOverride removes the subject's override. Idempotent.
	ClearOverride(subjectID string)
}

// =============================================================================
// In-memory Store
// =============================================================================

// overrideEntry is one stored impersonation session.
type overrideEntry struct {
	orgID     string
	createdAt time.Time
}

// MemoryStore is a mutex-guarded in-memory ImpersonationStore.
//
// The clock is injectable for expiry tests; NewMemoryStore wires time.Now.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]overrideEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]overrideEntry),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock creates a MemoryStore with an injected clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]overrideEntry),
		now:     now,
	}
}

// SetOverride implements ImpersonationStore.
func (s *MemoryStore) SetOverride(subjectID, orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[subjectID] = overrideEntry{orgID: orgID, createdAt: s.now()}
}

// GetOverride implements ImpersonationStore. Expiry is inclusive at the
// boundary: an entry exactly OverrideTTL old is already expired.
func (s *MemoryStore) GetOverride(subjectID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[subjectID]
	if !ok {
		return "", false
	}
	if s.now().Sub(entry.createdAt) >= OverrideTTL {
		delete(s.entries, subjectID)
		return "", false
	}
	return entry.orgID, true
}

// ClearOverride implements ImpersonationStore.
func (s *MemoryStore) ClearOverride(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subjectID)
}

// Compile-time interface compliance check.
var _ ImpersonationStore = (*MemoryStore)(nil)
