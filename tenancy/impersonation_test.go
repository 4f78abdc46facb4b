// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryStoreWithClock(clock.now), clock
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore()

	store.SetOverride("u1", "org-42")

	orgID, ok := store.GetOverride("u1")
	require.True(t, ok)
	assert.Equal(t, "org-42", orgID)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store, _ := newTestStore()

	_, ok := store.GetOverride("nobody")

	assert.False(t, ok)
}

func TestMemoryStore_ReplaceRestartsWindow(t *testing.T) {
	store, clock := newTestStore()

	store.SetOverride("u1", "org-1")
	clock.advance(23 * time.Hour)
	store.SetOverride("u1", "org-2")
	clock.advance(23 * time.Hour)

	orgID, ok := store.GetOverride("u1")
	require.True(t, ok)
	assert.Equal(t, "org-2", orgID)
}

func TestMemoryStore_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantHit bool
	}{
		{"just under the window", OverrideTTL - time.Second, true},
		{"exactly at the window", OverrideTTL, false},
		{"past the window", OverrideTTL + time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clock := newTestStore()
			store.SetOverride("u1", "org-42")
			clock.advance(tt.age)

			orgID, ok := store.GetOverride("u1")

			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.Equal(t, "org-42", orgID)
			}
		})
	}
}

func TestMemoryStore_ExpiredEntryIsDeleted(t *testing.T) {
	store, clock := newTestStore()
	store.SetOverride("u1", "org-42")
	clock.advance(OverrideTTL)

	_, ok := store.GetOverride("u1")
	require.False(t, ok)

	// A fresh write after expiry starts a new window.
	store.SetOverride("u1", "org-7")
	orgID, ok := store.GetOverride("u1")
	require.True(t, ok)
	assert.Equal(t, "org-7", orgID)
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore()
	store.SetOverride("u1", "org-42")

	store.ClearOverride("u1")
	store.ClearOverride("u1")

	_, ok := store.GetOverride("u1")
	assert.False(t, ok)
}

func TestMemoryStore_SubjectsAreIndependent(t *testing.T) {
	store, _ := newTestStore()
	store.SetOverride("u1", "org-1")
	store.SetOverride("u2", "org-2")

	store.ClearOverride("u1")

	_, ok := store.GetOverride("u1")
	assert.False(t, ok)
	orgID, ok := store.GetOverride("u2")
	require.True(t, ok)
	assert.Equal(t, "org-2", orgID)
}
