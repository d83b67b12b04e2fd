// Package memstore is an in-process backend.Conn used by tests and the
// standalone server binary's demo mode. It plays the same role the
// teacher's pkg/cache/local.go plays for its own Client interface: a
// mutex-guarded map standing in for the real, externally-supplied
// datastore engine.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/value"
)

type store struct {
	mu   sync.RWMutex
	data map[string]backend.Item
}

func newStore() *store { return &store{data: map[string]backend.Item{}} }

func (s *store) clone() *store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := newStore()
	for k, v := range s.data {
		c.data[k] = v
	}
	return c
}

// Conn is an in-memory backend.Conn holding one store per Datastore.
type Conn struct {
	mu      sync.Mutex
	running *store
	startup *store
	// candidate is rebuilt from running on demand; kept simple since
	// spec.md's candidate lifecycle is owned by internal/session, not the
	// back end, in this in-memory stand-in.
	candidate *store
}

func New() *Conn {
	return &Conn{
		running:   newStore(),
		startup:   newStore(),
		candidate: newStore(),
	}
}

func (c *Conn) StartSession(_ context.Context, ds backend.Datastore, opts backend.Options) (backend.Session, error) {
	return &session{conn: c, ds: ds, opts: opts}, nil
}

func (c *Conn) Close(context.Context) error { return nil }

func (c *Conn) storeFor(ds backend.Datastore) *store {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ds {
	case backend.Startup:
		return c.startup
	case backend.Candidate:
		return c.candidate
	default:
		return c.running
	}
}

// CommitCandidateToRunning copies the candidate store's contents into
// running, used by internal/session's Commit orchestration.
func (c *Conn) CommitCandidateToRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = c.candidate.clone()
}

// ResetCandidateFromRunning discards candidate edits, used on
// discard-changes and on the "refresh candidate from running" policy
// (spec.md §4.1).
func (c *Conn) ResetCandidateFromRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidate = c.running.clone()
}

type session struct {
	conn *Conn
	ds   backend.Datastore
	opts backend.Options
}

func (s *session) SwitchDatastore(_ context.Context, ds backend.Datastore) error {
	s.ds = ds
	return nil
}

func (s *session) SetOptions(_ context.Context, opts backend.Options) error {
	s.opts = opts
	return nil
}

func (s *session) Refresh(_ context.Context) error {
	if s.ds == backend.Candidate {
		s.conn.ResetCandidateFromRunning()
	}
	return nil
}

func (s *session) GetItems(_ context.Context, xpath string) (backend.Iterator, error) {
	st := s.conn.storeFor(s.ds)
	st.mu.RLock()
	defer st.mu.RUnlock()
	var items []backend.Item
	for path, item := range st.data {
		if hasPrefix(path, xpath) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return &sliceIterator{items: items}, nil
}

func (s *session) SetItem(_ context.Context, xpath string, v *value.Value, opts backend.SetOpts) error {
	st := s.conn.storeFor(s.ds)
	st.mu.Lock()
	defer st.mu.Unlock()
	if opts.Strict {
		if _, exists := st.data[xpath]; exists {
			return &backend.Error{Code: backend.DataExists, Message: "path already exists: " + xpath}
		}
	}
	item := backend.Item{Path: xpath}
	if v == nil {
		item.IsContainer = true
	} else {
		item.Value = *v
	}
	st.data[xpath] = item
	return nil
}

func (s *session) DeleteItem(_ context.Context, xpath string, opts backend.DeleteOpts) error {
	st := s.conn.storeFor(s.ds)
	st.mu.Lock()
	defer st.mu.Unlock()
	found := false
	for path := range st.data {
		if hasPrefix(path, xpath) {
			delete(st.data, path)
			found = true
		}
	}
	if !found && opts.Strict {
		return &backend.Error{Code: backend.DataMissing, Message: "path does not exist: " + xpath}
	}
	return nil
}

func (s *session) Validate(context.Context) error { return nil }

func (s *session) Commit(context.Context) error {
	if s.ds == backend.Candidate {
		s.conn.CommitCandidateToRunning()
	}
	return nil
}

func (s *session) DiscardChanges(context.Context) error {
	if s.ds == backend.Candidate {
		s.conn.ResetCandidateFromRunning()
	}
	return nil
}

func (s *session) CheckExecPermission(context.Context, string) (bool, error) { return true, nil }

func (s *session) Stop(context.Context) error { return nil }

func hasPrefix(path, xpath string) bool {
	if xpath == "" || xpath == "/" {
		return true
	}
	return path == xpath || len(path) > len(xpath) && path[:len(xpath)] == xpath && path[len(xpath)] == '/'
}

type sliceIterator struct {
	items []backend.Item
	pos   int
}

func (it *sliceIterator) Next(context.Context) (backend.Item, bool, error) {
	if it.pos >= len(it.items) {
		return backend.Item{}, false, nil
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

func (it *sliceIterator) Close() error { return nil }
