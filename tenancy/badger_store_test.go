// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_SetAndGet(t *testing.T) {
	store := newBadgerTestStore(t)

	store.SetOverride("u1", "org-42")

	orgID, ok := store.GetOverride("u1")
	require.True(t, ok)
	assert.Equal(t, "org-42", orgID)
}

func TestBadgerStore_GetMissing(t *testing.T) {
	store := newBadgerTestStore(t)

	_, ok := store.GetOverride("nobody")

	assert.False(t, ok)
}

func TestBadgerStore_ReplaceWins(t *testing.T) {
	store := newBadgerTestStore(t)

	store.SetOverride("u1", "org-1")
	store.SetOverride("u1", "org-2")

	orgID, ok := store.GetOverride("u1")
	require.True(t, ok)
	assert.Equal(t, "org-2", orgID)
}

func TestBadgerStore_ClearIsIdempotent(t *testing.T) {
	store := newBadgerTestStore(t)
	store.SetOverride("u1", "org-42")

	store.ClearOverride("u1")
	store.ClearOverride("u1")

	_, ok := store.GetOverride("u1")
	assert.False(t, ok)
}

func TestBadgerStore_SubjectsAreIndependent(t *testing.T) {
	store := newBadgerTestStore(t)
	store.SetOverride("u1", "org-1")
	store.SetOverride("u2", "org-2")

	store.ClearOverride("u1")

	_, ok := store.GetOverride("u1")
	assert.False(t, ok)
	orgID, ok := store.GetOverride("u2")
	require.True(t, ok)
	assert.Equal(t, "org-2", orgID)
}
