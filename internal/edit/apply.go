// Package edit implements the Edit Applier (spec.md §4.4, C5): turning an
// edit-config request tree into an ordered sequence of back-end
// set_item/delete_item calls, and running the test-option/error-option
// state machine around them.
package edit

import (
	"context"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"golang.org/x/sync/semaphore"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/schema"
)

// maxConcurrentBranches bounds how many top-level edit branches run at
// once under continue-on-error, the same fixed-size fan-out idiom the
// teacher uses for its own write-worker pool.
const maxConcurrentBranches = 8

// Applier applies edit-config request trees against a backend.Session.
type Applier struct {
	sc  schema.Client
	sem *semaphore.Weighted
}

// New returns an Applier backed by sc.
func New(sc schema.Client) *Applier {
	return &Applier{sc: sc, sem: semaphore.NewWeighted(maxConcurrentBranches)}
}

// Apply plans and executes configElem against sess under ctrl, per
// spec.md §4.4.
func (a *Applier) Apply(ctx context.Context, sess backend.Session, configElem *etree.Element, ctrl Controls) error {
	branches, err := plan(ctx, a.sc, configElem, ctrl.DefaultOperation.asOperation())
	if err != nil {
		return err
	}

	var applyErr error
	switch ctrl.ErrorOption {
	case ContinueOnError:
		applyErr = a.applyConcurrent(ctx, sess, branches)
	case RollbackOnError:
		if err := a.applySequential(ctx, sess, branches); err != nil {
			_ = sess.DiscardChanges(ctx)
			return ncerr.AsRPCError(err)
		}
	default: // StopOnError
		if err := a.applySequential(ctx, sess, branches); err != nil {
			return ncerr.AsRPCError(err)
		}
	}

	if err := a.finish(ctx, sess, ctrl.TestOption); err != nil {
		if applyErr != nil {
			return &MultiError{Errors: []error{applyErr, err}}
		}
		return ncerr.AsRPCError(err)
	}
	if applyErr != nil {
		return applyErr
	}
	return nil
}

// applySequential runs every branch's items in order, stopping at the
// first failure (spec.md §4.4 stop-on-error/rollback-on-error).
func (a *Applier) applySequential(ctx context.Context, sess backend.Session, branches []branch) error {
	for _, b := range branches {
		for _, it := range b {
			if err := applyItem(ctx, sess, it); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyConcurrent runs each top-level branch to completion independently,
// bounded by as many concurrent branches as maxConcurrentBranches allows,
// accumulating every failure instead of stopping (spec.md §4.4
// continue-on-error). Within a branch, items stay ordered, but a failed
// item's whole subtree is skipped rather than continuing into its own
// children — "continues with the next sibling" means the next sibling,
// not the failed node's descendants.
func (a *Applier) applyConcurrent(ctx context.Context, sess backend.Session, branches []branch) error {
	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup

	for _, b := range branches {
		b := b
		if err := a.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.sem.Release(1)
			var failedPrefixes []string
			for _, it := range b {
				if underFailedSubtree(it.path, failedPrefixes) {
					continue
				}
				if err := applyItem(ctx, sess, it); err != nil {
					failedPrefixes = append(failedPrefixes, it.path)
					mu.Lock()
					errs = append(errs, ncerr.AsRPCError(err))
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return &MultiError{Errors: errs}
}

// underFailedSubtree reports whether path is a descendant of any of
// failedPrefixes. plan.go emits one flat, preorder item list per branch
// (a node's own item immediately followed by its children's), so
// skipping the rest of a failed node's subtree under continue-on-error
// means skipping every later item whose path extends a failed one, not
// just the very next item in the list.
func underFailedSubtree(path string, failedPrefixes []string) bool {
	for _, fp := range failedPrefixes {
		if strings.HasPrefix(path, fp+"/") {
			return true
		}
	}
	return false
}

// applyItem issues the single back-end call effective-operation semantics
// require for it (spec.md §4.4).
func applyItem(ctx context.Context, sess backend.Session, it item) error {
	switch it.op {
	case OpMerge:
		return sess.SetItem(ctx, it.path, it.val, backend.SetOpts{})
	case OpReplace:
		if err := sess.DeleteItem(ctx, it.path, backend.DeleteOpts{}); err != nil {
			return err
		}
		return sess.SetItem(ctx, it.path, it.val, backend.SetOpts{})
	case OpCreate:
		if err := sess.SetItem(ctx, it.path, it.val, backend.SetOpts{Strict: true}); err != nil {
			return classifyDataExists(err, it.path)
		}
		return nil
	case OpDelete:
		if err := sess.DeleteItem(ctx, it.path, backend.DeleteOpts{Strict: true}); err != nil {
			return classifyDataMissing(err, it.path)
		}
		return nil
	case OpRemove:
		return sess.DeleteItem(ctx, it.path, backend.DeleteOpts{})
	case OpNone:
		return nil
	default:
		return nil
	}
}

func classifyDataExists(err error, path string) error {
	if be, ok := err.(*backend.Error); ok && be.Code == backend.DataExists {
		return ncerr.DataExists(ncerr.WithPath(path), ncerr.WithMessage(be.Message))
	}
	return err
}

func classifyDataMissing(err error, path string) error {
	if be, ok := err.(*backend.Error); ok && be.Code == backend.DataMissing {
		return ncerr.DataMissing(ncerr.WithPath(path), ncerr.WithMessage(be.Message))
	}
	return err
}

// finish runs the test-option's back-end validate/commit sequence once
// every item has been applied (spec.md §4.4).
func (a *Applier) finish(ctx context.Context, sess backend.Session, opt TestOption) error {
	switch opt {
	case TestOnly:
		return sess.Validate(ctx)
	case SetOnly:
		return sess.Commit(ctx)
	default: // TestThenSet
		if err := sess.Validate(ctx); err != nil {
			return err
		}
		return sess.Commit(ctx)
	}
}
