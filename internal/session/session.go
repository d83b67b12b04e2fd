// Package session implements Session State (spec.md §4.5/§3, C7) and the
// Lock Manager (spec.md §4.5, C8): the per-NETCONF-session record and the
// global per-datastore lock table.
package session

import (
	"context"
	"sync"

	"github.com/openncd/netconfd/internal/backend"
)

// Session is one NETCONF session's live state (spec.md §3).
type Session struct {
	ID string

	mu             sync.Mutex
	back           backend.Session
	ds             backend.Datastore
	opts           backend.Options
	candidateDirty bool
}

// New wraps a freshly-started back-end session under id.
func New(id string, back backend.Session, ds backend.Datastore) *Session {
	return &Session{ID: id, back: back, ds: ds}
}

// Backend returns the underlying back-end session handle.
func (s *Session) Backend() backend.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back
}

// Datastore returns the session's currently selected datastore.
func (s *Session) Datastore() backend.Datastore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds
}

// Options returns the session's option bitset (spec.md §3: at minimum
// config-only).
func (s *Session) Options() backend.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetOptions updates the session's option bitset.
func (s *Session) SetOptions(opts backend.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// CandidateDirty reports whether this session has issued edits against
// candidate not yet committed or discarded (spec.md §3).
func (s *Session) CandidateDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateDirty
}

// MarkCandidateDirty flags the session as having pending candidate edits.
func (s *Session) MarkCandidateDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidateDirty = true
}

// ClearCandidateDirty clears the pending-edits flag, on commit or
// discard-changes.
func (s *Session) ClearCandidateDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidateDirty = false
}

// SwitchDatastore lazily switches the session's back-end handle to ds
// only if it isn't already there (spec.md §4.1's "lazy switch_ds" rule),
// returning whether a switch actually occurred.
func (s *Session) SwitchDatastore(ctx context.Context, ds backend.Datastore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == ds {
		return false, nil
	}
	if err := s.back.SwitchDatastore(ctx, ds); err != nil {
		return false, err
	}
	s.ds = ds
	return true, nil
}
