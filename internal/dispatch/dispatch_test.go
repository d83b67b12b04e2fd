package dispatch_test

import (
	"context"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/backend/memstore"
	"github.com/openncd/netconfd/internal/dispatch"
	"github.com/openncd/netconfd/internal/edit"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/schema/fixture"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
)

func newFixture() *fixture.Store {
	sc := fixture.New()
	sc.RegisterModule("ietf-interfaces", "urn:ietf:params:xml:ns:yang:ietf-interfaces", "if")
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces"}, schema.NodeInfo{Kind: schema.NodeContainer})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface"}, schema.NodeInfo{
		Kind: schema.NodeList, Keys: []string{"name"},
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface", "if:name"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Type: schema.LeafType{Base: "string"}, Config: true,
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface", "if:mtu"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Type: schema.LeafType{Base: "uint32"}, Config: true,
		Default: "1500", HasDefault: true,
	})
	return sc
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *session.Table, *session.LockManager, *memstore.Conn) {
	t.Helper()
	sc := newFixture()
	table := session.NewTable()
	locks := session.NewLockManager(table)
	d := dispatch.New(sc, table, locks)
	return d, table, locks, memstore.New()
}

func newCandidateSession(t *testing.T, id string, conn *memstore.Conn, table *session.Table) *session.Session {
	t.Helper()
	back, err := conn.StartSession(context.Background(), backend.Candidate, backend.Options{})
	require.NoError(t, err)
	s := session.New(id, back, backend.Candidate)
	table.Add(s)
	return s
}

func parseElem(t *testing.T, xmlFrag string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xmlFrag))
	return doc.Root()
}

func findByLocalName(n *tree.Node, name string) *tree.Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children() {
		if c.Seg == name || (len(c.Seg) > len(name) && c.Seg[len(c.Seg)-len(name):] == name && c.Seg[len(c.Seg)-len(name)-1] == ':') {
			return c
		}
	}
	return nil
}

func TestEditConfigThenGetConfigRoundTrips(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	cfg := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth0</name><mtu>9000</mtu></interface>
			</interfaces>
		</config>`)
	err := d.EditConfig(context.Background(), sess, dispatch.EditConfigRequest{
		Target: backend.Candidate,
		Config: cfg,
		Controls: edit.Controls{TestOption: edit.SetOnly},
	})
	require.NoError(t, err)
	assert.True(t, sess.CandidateDirty())

	reply, err := d.GetConfig(context.Background(), sess, dispatch.GetConfigRequest{
		Source:       backend.Candidate,
		WithDefaults: tree.ModeReportAll,
	})
	require.NoError(t, err)

	ifaces := findByLocalName(reply.Data, "interfaces")
	require.NotNil(t, ifaces)
	iface := ifaces.Children()[0]
	mtu := findByLocalName(iface, "mtu")
	require.NotNil(t, mtu)
	assert.Equal(t, uint64(9000), mtu.Value.Uint)
}

func TestGetConfigRefreshSkippedWhenCandidateDirty(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	cfg := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth0</name><mtu>9000</mtu></interface>
			</interfaces>
		</config>`)
	require.NoError(t, d.EditConfig(context.Background(), sess, dispatch.EditConfigRequest{
		Target:   backend.Candidate,
		Config:   cfg,
		Controls: edit.Controls{TestOption: edit.SetOnly},
	}))

	// A read against candidate must not lose the dirty edit by refreshing
	// it back from (empty) running.
	reply, err := d.GetConfig(context.Background(), sess, dispatch.GetConfigRequest{
		Source:       backend.Candidate,
		WithDefaults: tree.ModeReportAll,
	})
	require.NoError(t, err)
	require.NotNil(t, findByLocalName(reply.Data, "interfaces"))
}

func TestCommitClearsDirtyAndPropagatesToRunning(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	cfg := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth0</name><mtu>9000</mtu></interface>
			</interfaces>
		</config>`)
	require.NoError(t, d.EditConfig(context.Background(), sess, dispatch.EditConfigRequest{
		Target:   backend.Candidate,
		Config:   cfg,
		Controls: edit.Controls{TestOption: edit.SetOnly},
	}))

	require.NoError(t, d.Commit(context.Background(), sess))
	assert.False(t, sess.CandidateDirty())

	runningSess := newCandidateSession(t, "sess-2", conn, table)
	runningSess.SetOptions(backend.Options{})
	_, err := runningSess.SwitchDatastore(context.Background(), backend.Running)
	require.NoError(t, err)

	reply, err := d.Get(context.Background(), runningSess, dispatch.GetRequest{WithDefaults: tree.ModeReportAll})
	require.NoError(t, err)
	require.NotNil(t, findByLocalName(reply.Data, "interfaces"))
}

func TestDiscardChangesClearsPendingEdits(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	cfg := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth0</name></interface>
			</interfaces>
		</config>`)
	require.NoError(t, d.EditConfig(context.Background(), sess, dispatch.EditConfigRequest{
		Target:   backend.Candidate,
		Config:   cfg,
		Controls: edit.Controls{TestOption: edit.SetOnly},
	}))
	require.True(t, sess.CandidateDirty())

	require.NoError(t, d.DiscardChanges(context.Background(), sess))
	assert.False(t, sess.CandidateDirty())

	reply, err := d.GetConfig(context.Background(), sess, dispatch.GetConfigRequest{
		Source:       backend.Candidate,
		WithDefaults: tree.ModeReportAll,
	})
	require.NoError(t, err)
	assert.Nil(t, findByLocalName(reply.Data, "interfaces"))
}

func TestLockThenLockAgainReturnsLockDeniedRPCError(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess1 := newCandidateSession(t, "sess-1", conn, table)
	sess2 := newCandidateSession(t, "sess-2", conn, table)

	require.NoError(t, d.Lock(context.Background(), sess1, dispatch.LockRequest{Target: backend.Running}))
	err := d.Lock(context.Background(), sess2, dispatch.LockRequest{Target: backend.Running})
	require.Error(t, err)
	assert.Equal(t, "lock-denied", ncerr.AsRPCError(err).Tag)
}

func TestUnlockCandidateWithPendingEditsDiscardsFirst(t *testing.T) {
	d, table, locks, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)
	require.NoError(t, d.Lock(context.Background(), sess, dispatch.LockRequest{Target: backend.Candidate}))
	sess.MarkCandidateDirty()

	require.NoError(t, d.Unlock(context.Background(), sess, dispatch.UnlockRequest{Target: backend.Candidate}))
	assert.False(t, sess.CandidateDirty())
	_, locked := locks.HolderOf(backend.Candidate)
	assert.False(t, locked)
}

func TestDeleteConfigRejectsRunningTarget(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	err := d.DeleteConfig(context.Background(), sess, dispatch.DeleteConfigRequest{Target: backend.Running})
	require.Error(t, err)
	assert.Equal(t, "operation-not-supported", ncerr.AsRPCError(err).Tag)
}

func TestGetConfigFromURLIsRejectedWithoutCapability(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	_, err := d.GetConfig(context.Background(), sess, dispatch.GetConfigRequest{SourceURL: "file:///tmp/x.xml"})
	require.Error(t, err)
	assert.Equal(t, "operation-not-supported", ncerr.AsRPCError(err).Tag)
}

func TestCopyConfigReplacesTargetWholesale(t *testing.T) {
	d, table, _, conn := newDispatcher(t)
	sess := newCandidateSession(t, "sess-1", conn, table)

	seed := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth0</name><mtu>1500</mtu></interface>
			</interfaces>
		</config>`)
	require.NoError(t, d.EditConfig(context.Background(), sess, dispatch.EditConfigRequest{
		Target:   backend.Candidate,
		Config:   seed,
		Controls: edit.Controls{TestOption: edit.SetOnly},
	}))

	replacement := parseElem(t, `
		<config>
			<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
				<interface><name>eth1</name><mtu>9000</mtu></interface>
			</interfaces>
		</config>`)
	err := d.CopyConfig(context.Background(), sess, dispatch.CopyConfigRequest{
		Target:         backend.Candidate,
		SourceIsConfig: true,
		SourceConfig:   replacement,
	})
	require.NoError(t, err)

	reply, err := d.GetConfig(context.Background(), sess, dispatch.GetConfigRequest{
		Source:       backend.Candidate,
		WithDefaults: tree.ModeReportAll,
	})
	require.NoError(t, err)
	ifaces := findByLocalName(reply.Data, "interfaces")
	require.NotNil(t, ifaces)
	require.Len(t, ifaces.Children(), 1)
	name := findByLocalName(ifaces.Children()[0], "name")
	require.NotNil(t, name)
	assert.Equal(t, "eth1", name.Value.Str)
}
