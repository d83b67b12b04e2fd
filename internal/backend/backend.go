// Package backend defines the datastore back-end interface this server
// consumes (spec.md §1/§6). The datastore engine itself — how
// running/startup/candidate are actually persisted — is explicitly out
// of scope; this package only names the boundary.
package backend

import (
	"context"

	"github.com/openncd/netconfd/internal/value"
)

// Datastore selects which conceptual store a session is talking to.
type Datastore int

const (
	Running Datastore = iota
	Startup
	Candidate
)

func (d Datastore) String() string {
	switch d {
	case Running:
		return "running"
	case Startup:
		return "startup"
	case Candidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Code is the back-end's error taxonomy (spec.md §6).
type Code int

const (
	OK Code = iota
	NotFound
	UnknownModel
	DataExists
	DataMissing
	ValidationFailed
	Other
)

// Error carries a back-end Code alongside a human-readable message so
// the dispatcher (internal/dispatch) can classify it into the right
// rpc-error tag (spec.md §7).
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Options are session-scoped flags (spec.md §3: "session options
// bitset, at minimum config-only").
type Options struct {
	ConfigOnly bool
}

// SetOpts controls a single set_item call.
type SetOpts struct {
	// Strict requires the path not already exist (edit-config "create").
	Strict bool
}

// DeleteOpts controls a single delete_item call.
type DeleteOpts struct {
	// Strict requires the path to already exist (edit-config "delete").
	Strict bool
}

// Item is one (path, value) pair returned by an iterator.
type Item struct {
	Path  string
	Value value.Value
	// IsContainer/IsListEntry mark non-scalar tagged values (spec.md §3);
	// Value is meaningless when either is true.
	IsContainer bool
	IsListEntry bool
	// IsDefault reports whether the back end considers this value a
	// schema default rather than an explicitly configured one (spec.md
	// §4.3's default-flag propagation starts from this bit; the Tree
	// Assembler falls back to its own schema-default comparison for
	// back ends, like memstore, that never set it).
	IsDefault bool
}

// Iterator streams Items from a get_items_iter call.
type Iterator interface {
	// Next returns the next item, or ok=false when exhausted.
	Next(ctx context.Context) (item Item, ok bool, err error)
	Close() error
}

// Session is a single back-end session bound to one NETCONF session,
// per spec.md §4.5/§6 ("one back-end session per NETCONF session").
type Session interface {
	SwitchDatastore(ctx context.Context, ds Datastore) error
	SetOptions(ctx context.Context, opts Options) error
	Refresh(ctx context.Context) error

	GetItems(ctx context.Context, xpath string) (Iterator, error)
	SetItem(ctx context.Context, xpath string, v *value.Value, opts SetOpts) error
	DeleteItem(ctx context.Context, xpath string, opts DeleteOpts) error

	Validate(ctx context.Context) error
	Commit(ctx context.Context) error
	DiscardChanges(ctx context.Context) error

	CheckExecPermission(ctx context.Context, xpath string) (bool, error)

	Stop(ctx context.Context) error
}

// Conn is the top-level back-end connection a datastore multiplexer
// (internal/session) starts sessions from.
type Conn interface {
	StartSession(ctx context.Context, ds Datastore, opts Options) (Session, error)
	Close(ctx context.Context) error
}
