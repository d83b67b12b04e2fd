// Package dispatch implements the Operation Dispatcher (spec.md §4.1,
// C6): one entry point per RPC, orchestrating the filter compiler, tree
// assembler, with-defaults filter, and edit applier around a session's
// back-end handle.
package dispatch

import (
	"context"
	"time"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/edit"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
)

// Metrics is the subset of internal/metrics.Recorder the dispatcher
// drives; kept as a small local interface so this package doesn't need
// to import the concrete Prometheus recorder.
type Metrics interface {
	ObserveRPC(rpc string, err error, dur time.Duration)
	IncLockDenied()
	IncEditError(tag string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRPC(string, error, time.Duration) {}
func (noopMetrics) IncLockDenied()                          {}
func (noopMetrics) IncEditError(string)                     {}

// StateProvider serves the in-process state trees spec.md §4.2 routes
// away from the datastore back end (ietf-yang-library,
// ietf-netconf-monitoring, nc-notifications), assembling directly into
// root the same way the back-end read path does. internal/monitoring
// implements this; kept as a local interface for the same reason
// Metrics is.
type StateProvider interface {
	Serve(ctx context.Context, root *tree.Node, path string) error
}

type noopStateProvider struct{}

func (noopStateProvider) Serve(context.Context, *tree.Node, string) error { return nil }

// URLFetcher resolves the `url` capability (spec.md §9 Open Question):
// fetching the bytes an inline `<config>`/filter would otherwise carry.
// It is a transport concern, not a datastore one, so it lives here
// rather than in internal/backend.
type URLFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Dispatcher wires C1-C5 and the session/lock tables together behind one
// entry point per RPC.
type Dispatcher struct {
	sc         schema.Client
	assembler  *tree.Assembler
	applier    *edit.Applier
	table      *session.Table
	locks      *session.LockManager
	urlEnabled bool
	urlFetch   URLFetcher
	metrics    Metrics
	state      StateProvider
}

// Option customizes a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithURLCapability enables the `url` source/target selector, fetching
// bytes through fetcher (spec.md §9).
func WithURLCapability(fetcher URLFetcher) Option {
	return func(d *Dispatcher) {
		d.urlEnabled = true
		d.urlFetch = fetcher
	}
}

// WithMetrics wires a metrics recorder; without it, dispatch is a no-op
// for metrics purposes.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithStateProvider wires internal/monitoring in; without it, filter
// paths routed to a provider (spec.md §4.2) simply come back empty.
func WithStateProvider(p StateProvider) Option {
	return func(d *Dispatcher) { d.state = p }
}

// New returns a Dispatcher backed by sc, the session table, and the lock
// manager.
func New(sc schema.Client, table *session.Table, locks *session.LockManager, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sc:        sc,
		assembler: tree.New(sc),
		applier:   edit.New(sc),
		table:     table,
		locks:     locks,
		metrics:   noopMetrics{},
		state:     noopStateProvider{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// finishRPC applies spec.md §4.1's "any back-end error is converted into
// an rpc-error" rule and records the dispatch-wide metrics observation
// for one RPC entry point. Every exported RPC method funnels its return
// through this so the two concerns can't drift apart.
func (d *Dispatcher) finishRPC(rpc string, start time.Time, err error) error {
	if err != nil {
		err = classifyBackendError(err)
		if rpcErr := ncerr.AsRPCError(err); rpcErr != nil && rpc == "edit-config" {
			d.metrics.IncEditError(rpcErr.Tag)
		}
	}
	d.metrics.ObserveRPC(rpc, err, time.Since(start))
	return err
}

// refreshForRead applies spec.md §4.1's refresh policy before any data
// read: unconditional for running/startup, conditional on a clean
// candidate-changed flag for candidate (never refresh after local edits,
// since that would drop them).
func refreshForRead(ctx context.Context, sess *session.Session) error {
	if sess.Datastore() == backend.Candidate && sess.CandidateDirty() {
		return nil
	}
	return sess.Backend().Refresh(ctx)
}

// selectDatastore performs the lazy switch_ds spec.md §4.1 describes and
// returns the now-current back-end handle.
func selectDatastore(ctx context.Context, sess *session.Session, ds backend.Datastore) (backend.Session, error) {
	if _, err := sess.SwitchDatastore(ctx, ds); err != nil {
		return nil, err
	}
	return sess.Backend(), nil
}
