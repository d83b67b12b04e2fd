package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/openncd/netconfd/internal/admin"
	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/session"
)

func TestListSessionsReportsLiveSessions(t *testing.T) {
	table := session.NewTable()
	sess := session.New("sess-1", nil, backend.Running)
	sess.MarkCandidateDirty()
	table.Add(sess)
	locks := session.NewLockManager(table)

	svc := admin.NewService(table, locks, nil)
	out, err := svc.ListSessions(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	sessions, ok := out.AsMap()["sessions"].([]interface{})
	require.True(t, ok)
	require.Len(t, sessions, 1)
	entry := sessions[0].(map[string]interface{})
	assert.Equal(t, "sess-1", entry["session-id"])
	assert.Equal(t, "running", entry["datastore"])
	assert.Equal(t, true, entry["candidate-dirty"])
}

func TestListLocksOmitsUnlockedDatastores(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)
	require.NoError(t, locks.Lock(backend.Candidate, "sess-1", nil))

	svc := admin.NewService(table, locks, nil)
	out, err := svc.ListLocks(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	lockList, ok := out.AsMap()["locks"].([]interface{})
	require.True(t, ok)
	require.Len(t, lockList, 1)
	entry := lockList[0].(map[string]interface{})
	assert.Equal(t, "candidate", entry["datastore"])
	assert.Equal(t, "sess-1", entry["holder"])
}

func TestCapabilitiesReturnsConfiguredList(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)
	svc := admin.NewService(table, locks, []string{"urn:ietf:params:netconf:base:1.1", "urn:ietf:params:netconf:capability:candidate:1.0"})

	out, err := svc.Capabilities(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	caps, ok := out.AsMap()["capabilities"].([]interface{})
	require.True(t, ok)
	assert.Len(t, caps, 2)
}
