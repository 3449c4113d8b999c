// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd007-quota R5 (in-process store).
package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-process quota store. The mutex makes the
// check-then-increment atomic, matching the guarded conditional update
// a database-backed store would issue.
type MemoryStore struct {
	mu   sync.Mutex
	used map[string]int64
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{used: make(map[string]int64)}
}

func storeKey(tenantID, provider, quotaType string) string {
	return tenantID + "/" + provider + "/" + quotaType
}

// Deduct increments the counter only if the result stays within the
// limit. A deduction that would overshoot silently no-ops; refusing
// further invocations is the caller's policy, not the store's.
func (s *MemoryStore) Deduct(ctx context.Context, tenantID, provider, quotaType string, amount, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(tenantID, provider, quotaType)
	if s.used[key]+amount > limit {
		return nil
	}
	s.used[key] += amount
	return nil
}

// Used reports the recorded usage for a tenant's quota counter.
func (s *MemoryStore) Used(ctx context.Context, tenantID, provider, quotaType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[storeKey(tenantID, provider, quotaType)], nil
}
