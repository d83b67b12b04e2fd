package dispatch

import (
	"context"
	"time"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/session"
)

// Lock implements <lock> (spec.md §4.5), delegating to the Lock Manager.
// The candidate-differs-from-running check the manager runs for a
// candidate lock is driven purely by the session table's dirty flags;
// this server doesn't have a cheaper back-end diff to offer it.
func (d *Dispatcher) Lock(ctx context.Context, sess *session.Session, req LockRequest) error {
	start := time.Now()
	err := d.locks.Lock(req.Target, sess.ID, nil)
	if err != nil {
		d.metrics.IncLockDenied()
	}
	return d.finishRPC("lock", start, err)
}

// Unlock implements <unlock>. A holder with pending candidate edits must
// discard them before the lock releases (spec.md §4.5); this dispatcher
// enforces that ordering rather than leaving it to the Lock Manager.
func (d *Dispatcher) Unlock(ctx context.Context, sess *session.Session, req UnlockRequest) error {
	start := time.Now()
	err := d.unlock(ctx, sess, req)
	return d.finishRPC("unlock", start, err)
}

func (d *Dispatcher) unlock(ctx context.Context, sess *session.Session, req UnlockRequest) error {
	if req.Target == backend.Candidate && sess.CandidateDirty() {
		if err := session.DiscardChanges(ctx, sess); err != nil {
			return err
		}
	}
	return d.locks.Unlock(req.Target, sess.ID)
}

// Commit implements <commit> (spec.md §4.5): commit candidate into
// running via the invoking session's own back end, then clear every live
// session's candidate-changed flag.
func (d *Dispatcher) Commit(ctx context.Context, sess *session.Session) error {
	start := time.Now()
	err := session.Commit(ctx, sess, d.table)
	return d.finishRPC("commit", start, err)
}

// DiscardChanges implements <discard-changes>: drop the invoking
// session's own pending candidate edits.
func (d *Dispatcher) DiscardChanges(ctx context.Context, sess *session.Session) error {
	start := time.Now()
	err := session.DiscardChanges(ctx, sess)
	return d.finishRPC("discard-changes", start, err)
}

// Validate implements <validate> against either a named datastore or an
// inline <config> (spec.md §4.1).
func (d *Dispatcher) Validate(ctx context.Context, sess *session.Session, req ValidateRequest) error {
	start := time.Now()
	err := d.validate(ctx, sess, req)
	return d.finishRPC("validate", start, err)
}

func (d *Dispatcher) validate(ctx context.Context, sess *session.Session, req ValidateRequest) error {
	if req.SourceIsConfig {
		// This back end has no dry-run staging area, so validating an
		// inline <config> writes it through the same path edit-config
		// would and then calls Validate; TestOnly never issues the
		// matching Commit, but the items themselves do land in the
		// session's current datastore.
		back, err := selectDatastore(ctx, sess, sess.Datastore())
		if err != nil {
			return err
		}
		return d.applier.Apply(ctx, back, req.SourceConfig, testOnlyControls)
	}
	back, err := selectDatastore(ctx, sess, req.Source)
	if err != nil {
		return err
	}
	return back.Validate(ctx)
}
