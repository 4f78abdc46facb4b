// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// overrideKeyPrefix namespaces impersonation entries within the database.
const overrideKeyPrefix = "impersonation/override/"

// BadgerStore is an ImpersonationStore backed by BadgerDB.
//
// # Description
//
// Overrides are written with Badger's native per-entry TTL set to
// OverrideTTL, so expiry survives process restarts and is evaluated lazily
// on read, matching the MemoryStore semantics. Used when the gateway is
// configured with a persistence path; tests use an in-memory database.
//
// # Thread Safety
//
// Safe for concurrent use; Badger transactions provide the isolation.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database at path and wraps it as an
// ImpersonationStore. The directory is created when absent.
func NewBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("path is required for persistent override store")
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create override store directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open override store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewInMemoryBadgerStore opens an in-memory Badger database. Data is lost on
// Close; intended for tests and single-run deployments.
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory override store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func overrideKey(subjectID string) []byte {
	return []byte(overrideKeyPrefix + subjectID)
}

// SetOverride implements ImpersonationStore. The entry's TTL restarts on
// every write, so a new switch silently replaces the prior override.
func (s *BadgerStore) SetOverride(subjectID, orgID string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(overrideKey(subjectID), []byte(orgID)).WithTTL(OverrideTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		slog.Error("Failed to persist impersonation override",
			"subjectId", subjectID, "error", err)
	}
}

// GetOverride implements ImpersonationStore. Badger reports TTL-expired keys
// as not found, which matches the lazy-expiry contract.
func (s *BadgerStore) GetOverride(subjectID string) (string, bool) {
	var orgID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(overrideKey(subjectID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			orgID = string(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			slog.Error("Failed to read impersonation override",
				"subjectId", subjectID, "error", err)
		}
		return "", false
	}
	return orgID, true
}

// ClearOverride implements ImpersonationStore. Deleting an absent key is a
// no-op, so the call is idempotent.
func (s *BadgerStore) ClearOverride(subjectID string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(overrideKey(subjectID))
	})
	if err != nil {
		slog.Error("Failed to clear impersonation override",
			"subjectId", subjectID, "error", err)
	}
}

// Compile-time interface compliance check.
var _ ImpersonationStore = (*BadgerStore)(nil)
