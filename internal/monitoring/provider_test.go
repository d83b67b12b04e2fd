package monitoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/monitoring"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
)

func TestServeSessionsListsLiveSessions(t *testing.T) {
	table := session.NewTable()
	table.Add(session.New("sess-1", nil, backend.Running))
	locks := session.NewLockManager(table)

	p := monitoring.New(table, locks, nil)
	root := tree.NewRoot()
	require.NoError(t, p.Serve(context.Background(), root, "/ietf-netconf-monitoring:netconf-state"))
	require.Len(t, root.Children(), 1)
	assert.Equal(t, "ncm:netconf-state", root.Children()[0].Seg)
}

func TestServeLocksOmitsUnlockedDatastores(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)
	require.NoError(t, locks.Lock(backend.Running, "sess-1", nil))

	p := monitoring.New(table, locks, nil)
	root := tree.NewRoot()
	require.NoError(t, p.Serve(context.Background(), root, "/ietf-netconf-monitoring:netconf-state"))

	state := root.Children()[0]
	var found bool
	for _, c := range state.Children() {
		if c.Seg == "ncm:datastores" {
			found = true
			require.Len(t, c.Children(), 1)
			assert.Equal(t, "ncm:datastore[ncm:name='running']", c.Children()[0].Seg)
		}
	}
	assert.True(t, found, "expected ncm:datastores container to be assembled")
}

func TestServeYangLibraryListsModulesSorted(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)
	modules := []monitoring.ModuleInfo{
		{Name: "zzz-module", Revision: "2024-01-01", Namespace: "urn:zzz"},
		{Name: "aaa-module", Revision: "2024-01-01", Namespace: "urn:aaa"},
	}

	p := monitoring.New(table, locks, modules)
	root := tree.NewRoot()
	require.NoError(t, p.Serve(context.Background(), root, "/ietf-yang-library:modules-state"))

	ms := root.Children()[0]
	require.Len(t, ms.Children(), 2)
	assert.Contains(t, ms.Children()[0].Seg, "aaa-module")
	assert.Contains(t, ms.Children()[1].Seg, "zzz-module")
}

func TestServeNotificationStreamsAdvertisesDefaultStream(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)

	p := monitoring.New(table, locks, nil)
	root := tree.NewRoot()
	require.NoError(t, p.Serve(context.Background(), root, "/nc-notifications:netconf"))
	require.Len(t, root.Children(), 1)
	assert.Equal(t, "ncn:netconf", root.Children()[0].Seg)
}

func TestServeUnknownPrefixLeavesTreeEmpty(t *testing.T) {
	table := session.NewTable()
	locks := session.NewLockManager(table)

	p := monitoring.New(table, locks, nil)
	root := tree.NewRoot()
	require.NoError(t, p.Serve(context.Background(), root, "/if:interfaces"))
	assert.Empty(t, root.Children())
}
