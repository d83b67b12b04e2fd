package session

import "sync"

// Table is the server-wide live-session map, guarded by a single
// RWMutex the way the teacher guards its own map of live datastores
// (pkg/server/data.go).
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onChange func(n int)
}

// TableOption customizes a Table at construction time.
type TableOption func(*Table)

// WithSessionCountHook registers fn to be called with the table's live
// session count on every Add/Remove, so callers (internal/metrics' active
// sessions gauge) don't need to poll List themselves.
func WithSessionCountHook(fn func(n int)) TableOption {
	return func(t *Table) { t.onChange = fn }
}

// NewTable returns an empty session table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{sessions: map[string]*Session{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add registers s under its own ID.
func (t *Table) Add(s *Session) {
	t.mu.Lock()
	t.sessions[s.ID] = s
	n := len(t.sessions)
	t.mu.Unlock()
	if t.onChange != nil {
		t.onChange(n)
	}
}

// Remove drops the session with the given id.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	delete(t.sessions, id)
	n := len(t.sessions)
	t.mu.Unlock()
	if t.onChange != nil {
		t.onChange(n)
	}
}

// Get returns the session with the given id, if any.
func (t *Table) Get(id string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// List returns a snapshot of every live session, for the admin/
// introspection surface (internal/admin) and the ietf-netconf-monitoring
// provider (internal/monitoring).
func (t *Table) List() []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}

// AnyCandidateDirty reports whether any live session currently holds
// uncommitted candidate edits, used by the Lock Manager's
// candidate-differs-from-running check (spec.md §4.5).
func (t *Table) AnyCandidateDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.sessions {
		if s.CandidateDirty() {
			return true
		}
	}
	return false
}
