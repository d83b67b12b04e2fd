package session

import (
	"sync"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/ncerr"
)

// LockManager holds the global per-datastore lock state (spec.md §4.5):
// UNLOCKED / LOCKED(sid), plus the candidate-specific "lock rejected if
// candidate differs from running" rule.
type LockManager struct {
	mu      sync.Mutex
	holders map[backend.Datastore]string
	table   *Table
}

// NewLockManager returns an empty lock table backed by table for the
// candidate-differs-from-running check.
func NewLockManager(table *Table) *LockManager {
	return &LockManager{holders: map[backend.Datastore]string{}, table: table}
}

// Lock attempts to acquire ds on behalf of sessionID (spec.md §4.5).
func (m *LockManager) Lock(ds backend.Datastore, sessionID string, candidateDiffers func() bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if holder, locked := m.holders[ds]; locked {
		return ncerr.LockDenied(holder)
	}
	if ds == backend.Candidate {
		diverged := m.table.AnyCandidateDirty()
		if candidateDiffers != nil {
			diverged = diverged || candidateDiffers()
		}
		if diverged {
			return ncerr.LockDenied(sessionID, ncerr.WithMessage("candidate differs from running"))
		}
	}
	m.holders[ds] = sessionID
	return nil
}

// Unlock releases ds held by sessionID. If the holder has pending
// candidate edits, the caller is responsible for discarding them first
// (spec.md §4.5: "unlock candidate by a holder with pending edits
// discards those edits before releasing the lock") — Unlock itself only
// enforces holder identity and clears the lock.
func (m *LockManager) Unlock(ds backend.Datastore, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holder, locked := m.holders[ds]
	if !locked {
		return ncerr.OperationFailed(ncerr.WithMessage("datastore is not locked"))
	}
	if holder != sessionID {
		return ncerr.LockDenied(holder)
	}
	delete(m.holders, ds)
	return nil
}

// HolderOf returns the current lock holder of ds, if any.
func (m *LockManager) HolderOf(ds backend.Datastore) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holders[ds]
	return h, ok
}

// ReleaseAll drops every lock held by sessionID, on session termination.
func (m *LockManager) ReleaseAll(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ds, holder := range m.holders {
		if holder == sessionID {
			delete(m.holders, ds)
		}
	}
}
