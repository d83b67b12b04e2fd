package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/backend/memstore"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/session"
)

func newBackendSession(t *testing.T, ds backend.Datastore) backend.Session {
	t.Helper()
	conn := memstore.New()
	s, err := conn.StartSession(context.Background(), ds, backend.Options{})
	require.NoError(t, err)
	return s
}

func TestSwitchDatastoreIsLazy(t *testing.T) {
	back := newBackendSession(t, backend.Running)
	s := session.New("sess-1", back, backend.Running)

	switched, err := s.SwitchDatastore(context.Background(), backend.Running)
	require.NoError(t, err)
	assert.False(t, switched)

	switched, err = s.SwitchDatastore(context.Background(), backend.Candidate)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, backend.Candidate, s.Datastore())
}

func TestCandidateDirtyFlagLifecycle(t *testing.T) {
	s := session.New("sess-1", newBackendSession(t, backend.Candidate), backend.Candidate)
	assert.False(t, s.CandidateDirty())
	s.MarkCandidateDirty()
	assert.True(t, s.CandidateDirty())
	s.ClearCandidateDirty()
	assert.False(t, s.CandidateDirty())
}

func TestLockThenLockAgainIsDenied(t *testing.T) {
	table := session.NewTable()
	lm := session.NewLockManager(table)

	require.NoError(t, lm.Lock(backend.Running, "sess-1", nil))
	err := lm.Lock(backend.Running, "sess-2", nil)
	require.Error(t, err)
	rpcErr := ncerr.AsRPCError(err)
	assert.Equal(t, "lock-denied", rpcErr.Tag)
	assert.Equal(t, "sess-1", rpcErr.Info.SessionID)
}

func TestLockCandidateRejectedWhenAnySessionDirty(t *testing.T) {
	table := session.NewTable()
	dirty := session.New("sess-1", newBackendSession(t, backend.Candidate), backend.Candidate)
	dirty.MarkCandidateDirty()
	table.Add(dirty)

	lm := session.NewLockManager(table)
	err := lm.Lock(backend.Candidate, "sess-2", nil)
	require.Error(t, err)
	assert.Equal(t, "lock-denied", ncerr.AsRPCError(err).Tag)
}

func TestUnlockByNonHolderIsDenied(t *testing.T) {
	table := session.NewTable()
	lm := session.NewLockManager(table)
	require.NoError(t, lm.Lock(backend.Running, "sess-1", nil))

	err := lm.Unlock(backend.Running, "sess-2")
	require.Error(t, err)
	assert.Equal(t, "lock-denied", ncerr.AsRPCError(err).Tag)

	require.NoError(t, lm.Unlock(backend.Running, "sess-1"))
	_, locked := lm.HolderOf(backend.Running)
	assert.False(t, locked)
}

func TestCommitClearsEverySessionsDirtyFlag(t *testing.T) {
	table := session.NewTable()
	invoking := session.New("sess-1", newBackendSession(t, backend.Candidate), backend.Candidate)
	other := session.New("sess-2", newBackendSession(t, backend.Candidate), backend.Candidate)
	invoking.MarkCandidateDirty()
	other.MarkCandidateDirty()
	table.Add(invoking)
	table.Add(other)

	require.NoError(t, session.Commit(context.Background(), invoking, table))
	assert.False(t, invoking.CandidateDirty())
	assert.False(t, other.CandidateDirty())
}

func TestDiscardChangesClearsOnlyInvokingSession(t *testing.T) {
	sess := session.New("sess-1", newBackendSession(t, backend.Candidate), backend.Candidate)
	other := session.New("sess-2", newBackendSession(t, backend.Candidate), backend.Candidate)
	sess.MarkCandidateDirty()
	other.MarkCandidateDirty()

	require.NoError(t, session.DiscardChanges(context.Background(), sess))
	assert.False(t, sess.CandidateDirty())
	assert.True(t, other.CandidateDirty())
}

func TestReleaseAllDropsOnlyThatSessionsLocks(t *testing.T) {
	table := session.NewTable()
	lm := session.NewLockManager(table)
	require.NoError(t, lm.Lock(backend.Running, "sess-1", nil))
	require.NoError(t, lm.Lock(backend.Candidate, "sess-2", nil))

	lm.ReleaseAll("sess-1")
	_, runningLocked := lm.HolderOf(backend.Running)
	assert.False(t, runningLocked)
	holder, candidateLocked := lm.HolderOf(backend.Candidate)
	assert.True(t, candidateLocked)
	assert.Equal(t, "sess-2", holder)
}
