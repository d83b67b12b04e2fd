package tree_test

import (
	"context"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/schema/fixture"
	"github.com/openncd/netconfd/internal/tree"
	"github.com/openncd/netconfd/internal/value"
)

// segShape is a diff-friendly projection of a Node's structure, since
// pretty.Compare on *tree.Node itself would walk unexported fields.
type segShape struct {
	Seg      string
	Default  bool
	Children []segShape
}

func shapeOf(n *tree.Node) segShape {
	s := segShape{Seg: n.Seg, Default: n.Default}
	for _, c := range n.Children() {
		s.Children = append(s.Children, shapeOf(c))
	}
	return s
}

func newFixture() *fixture.Store {
	sc := fixture.New()
	sc.RegisterModule("ietf-interfaces", "urn:ietf:params:xml:ns:yang:ietf-interfaces", "if")
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces"}, schema.NodeInfo{Kind: schema.NodeContainer})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface[if:name='eth0']"}, schema.NodeInfo{
		Kind: schema.NodeList, Keys: []string{"name"},
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface[if:name='eth0']", "if:name"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Config: true,
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface[if:name='eth0']", "if:mtu"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Config: true, Default: "1500", HasDefault: true,
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface[if:name='eth0']", "if:description"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Config: true,
	})
	return sc
}

func mtuPath() []string {
	return []string{"if:interfaces", "if:interface[if:name='eth0']", "if:mtu"}
}

func TestInsertCreatesIntermediateAncestors(t *testing.T) {
	sc := newFixture()
	a := tree.New(sc)
	root := tree.NewRoot()

	err := a.Insert(context.Background(), root, mtuPath(), value.Value{Kind: value.KindUint32, Uint: 9000}, false)
	require.NoError(t, err)

	require.Len(t, root.Children(), 1)
	ifs := root.Children()[0]
	assert.Equal(t, "if:interfaces", ifs.Seg)
	iface := ifs.Children()[0]
	assert.Equal(t, "if:interface[if:name='eth0']", iface.Seg)
	mtu := iface.Children()[0]
	assert.Equal(t, "if:mtu", mtu.Seg)
	assert.Equal(t, uint64(9000), mtu.Value.Uint)
}

func TestInsertIsIdempotent(t *testing.T) {
	sc := newFixture()
	a := tree.New(sc)
	root := tree.NewRoot()
	v := value.Value{Kind: value.KindUint32, Uint: 9000}

	require.NoError(t, a.Insert(context.Background(), root, mtuPath(), v, false))
	require.NoError(t, a.Insert(context.Background(), root, mtuPath(), v, false))

	iface := root.Children()[0].Children()[0]
	require.Len(t, iface.Children(), 1)
	assert.Equal(t, uint64(9000), iface.Children()[0].Value.Uint)
}

// TestDefaultFlagPropagationStopsAtKeyedList checks that a default leaf
// does not mark its keyed list entry or anything above it as default.
func TestDefaultFlagPropagationStopsAtKeyedList(t *testing.T) {
	sc := newFixture()
	a := tree.New(sc)
	root := tree.NewRoot()

	err := a.Insert(context.Background(), root, mtuPath(), value.Value{Kind: value.KindUint32, Uint: 1500}, true)
	require.NoError(t, err)

	ifs := root.Children()[0]
	iface := ifs.Children()[0]
	mtu := iface.Children()[0]

	assert.True(t, mtu.Default)
	// iface is a keyed list entry: propagation stops there, so it and
	// everything above it stay non-default.
	assert.False(t, iface.Default)
	assert.False(t, ifs.Default)
}

func TestDefaultFlagPropagationStopsAtPresenceContainer(t *testing.T) {
	sc := fixture.New()
	sc.RegisterModule("m", "urn:m", "m")
	sc.RegisterNode("m", []string{"m:top"}, schema.NodeInfo{Kind: schema.NodeContainer, Presence: true})
	sc.RegisterNode("m", []string{"m:top", "m:mid"}, schema.NodeInfo{Kind: schema.NodeContainer})
	sc.RegisterNode("m", []string{"m:top", "m:mid", "m:leaf"}, schema.NodeInfo{Kind: schema.NodeLeaf})

	a := tree.New(sc)
	root := tree.NewRoot()
	err := a.Insert(context.Background(), root, []string{"m:top", "m:mid", "m:leaf"}, value.Value{Kind: value.KindString, Str: "x"}, true)
	require.NoError(t, err)

	top := root.Children()[0]
	mid := top.Children()[0]
	leaf := mid.Children()[0]

	assert.True(t, leaf.Default)
	assert.True(t, mid.Default)
	assert.False(t, top.Default) // top is the presence-container boundary
}

func TestNonDefaultInsertClearsAncestorFlags(t *testing.T) {
	sc := fixture.New()
	sc.RegisterModule("m", "urn:m", "m")
	sc.RegisterNode("m", []string{"m:top"}, schema.NodeInfo{Kind: schema.NodeContainer})
	sc.RegisterNode("m", []string{"m:top", "m:leaf"}, schema.NodeInfo{Kind: schema.NodeLeaf})

	a := tree.New(sc)
	root := tree.NewRoot()
	require.NoError(t, a.Insert(context.Background(), root, []string{"m:top", "m:leaf"}, value.Value{Kind: value.KindString, Str: "x"}, true))
	top := root.Children()[0]
	assert.True(t, top.Default)

	require.NoError(t, a.Insert(context.Background(), root, []string{"m:top", "m:leaf"}, value.Value{Kind: value.KindString, Str: "y"}, false))
	assert.False(t, top.Default)
	assert.False(t, top.Children()[0].Default)
}

func TestAssembledShapeMatchesExpectedTree(t *testing.T) {
	sc := newFixture()
	a := tree.New(sc)
	root := tree.NewRoot()
	err := a.Insert(context.Background(), root, mtuPath(), value.Value{Kind: value.KindUint32, Uint: 1500}, true)
	require.NoError(t, err)

	got := shapeOf(root)
	want := segShape{
		Children: []segShape{
			{Seg: "if:interfaces", Children: []segShape{
				{Seg: "if:interface[if:name='eth0']", Children: []segShape{
					{Seg: "if:mtu", Default: true},
				}},
			}},
		},
	}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("assembled tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeyValues(t *testing.T) {
	got := tree.ParseKeyValues("if:interface[if:name='eth0']")
	assert.Equal(t, map[string]string{"name": "eth0"}, got)
}
