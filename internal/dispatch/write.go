package dispatch

import (
	"context"
	"time"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/edit"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/session"
)

// replaceEverythingControls is copy-config's implicit edit-config
// equivalent: replace the whole target with source, stopping on the
// first validation failure (RFC 6241 §7.3).
var replaceEverythingControls = edit.Controls{
	DefaultOperation: edit.DefaultOperationReplace,
	TestOption:       edit.TestThenSet,
	ErrorOption:      edit.StopOnError,
}

// testOnlyControls backs <validate> against an inline <config>: merge it
// in and only ever validate, never commit.
var testOnlyControls = edit.Controls{
	DefaultOperation: edit.DefaultOperationMerge,
	TestOption:       edit.TestOnly,
	ErrorOption:      edit.StopOnError,
}

// EditConfig implements <edit-config> (spec.md §4.4), delegating the
// actual plan/apply/test-option state machine to the Edit Applier.
func (d *Dispatcher) EditConfig(ctx context.Context, sess *session.Session, req EditConfigRequest) error {
	start := time.Now()
	err := d.editConfig(ctx, sess, req)
	return d.finishRPC("edit-config", start, err)
}

func (d *Dispatcher) editConfig(ctx context.Context, sess *session.Session, req EditConfigRequest) error {
	if req.ConfigURL != "" {
		if !d.urlEnabled {
			return ncerr.OperationNotSupported(ncerr.WithMessage("the url capability is not advertised"))
		}
		return ncerr.OperationNotSupported(ncerr.WithMessage("edit-config from url is not implemented by this datastore"))
	}
	back, err := selectDatastore(ctx, sess, req.Target)
	if err != nil {
		return err
	}
	ctrl := req.Controls
	if req.Target == backend.Candidate {
		// A back-end Commit on a candidate session copies candidate into
		// running (session.Commit relies on that), so candidate edits stop
		// at validation and reach running only through <commit>.
		ctrl.TestOption = edit.TestOnly
	}
	if err := d.applier.Apply(ctx, back, req.Config, ctrl); err != nil {
		return err
	}
	if req.Target == backend.Candidate {
		sess.MarkCandidateDirty()
	}
	return nil
}

// CopyConfig implements <copy-config>: wholesale replacement of target
// with source's content, reusing the Edit Applier's replace-then-apply
// machinery with an implicit default-operation of "replace" against the
// target's own root.
func (d *Dispatcher) CopyConfig(ctx context.Context, sess *session.Session, req CopyConfigRequest) error {
	start := time.Now()
	err := d.copyConfig(ctx, sess, req)
	return d.finishRPC("copy-config", start, err)
}

func (d *Dispatcher) copyConfig(ctx context.Context, sess *session.Session, req CopyConfigRequest) error {
	if req.SourceURL != "" || req.TargetURL != "" {
		if !d.urlEnabled {
			return ncerr.OperationNotSupported(ncerr.WithMessage("the url capability is not advertised"))
		}
		return ncerr.OperationNotSupported(ncerr.WithMessage("copy-config via url is not implemented by this datastore"))
	}
	if !req.SourceIsConfig {
		return ncerr.OperationNotSupported(ncerr.WithMessage("copy-config between two datastores is not implemented by this datastore; supply an inline source config"))
	}
	back, err := selectDatastore(ctx, sess, req.Target)
	if err != nil {
		return err
	}
	if err := back.DeleteItem(ctx, "", backend.DeleteOpts{}); err != nil {
		return err
	}
	ctrl := replaceEverythingControls
	if req.Target == backend.Candidate {
		// Same as editConfig: a candidate target is never committed here.
		ctrl.TestOption = edit.TestOnly
	}
	if err := d.applier.Apply(ctx, back, req.SourceConfig, ctrl); err != nil {
		return err
	}
	if req.Target == backend.Candidate {
		sess.MarkCandidateDirty()
	}
	return nil
}

// DeleteConfig implements <delete-config>: running may never be a
// target (RFC 6241 §7.4), so this is only ever meaningful against
// startup or candidate.
func (d *Dispatcher) DeleteConfig(ctx context.Context, sess *session.Session, req DeleteConfigRequest) error {
	start := time.Now()
	err := d.deleteConfig(ctx, sess, req)
	return d.finishRPC("delete-config", start, err)
}

func (d *Dispatcher) deleteConfig(ctx context.Context, sess *session.Session, req DeleteConfigRequest) error {
	if req.Target == backend.Running {
		return ncerr.OperationNotSupported(ncerr.WithMessage("running cannot be a delete-config target"))
	}
	back, err := selectDatastore(ctx, sess, req.Target)
	if err != nil {
		return err
	}
	if err := back.DeleteItem(ctx, "", backend.DeleteOpts{}); err != nil {
		return err
	}
	if req.Target == backend.Candidate {
		sess.MarkCandidateDirty()
	}
	return nil
}
