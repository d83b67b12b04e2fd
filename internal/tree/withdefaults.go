package tree

import (
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/value"
)

// Mode is a NETCONF with-defaults reply mode (RFC 6243), per spec.md §4.6.
type Mode int

const (
	ModeReportAll Mode = iota
	ModeReportAllTagged
	ModeTrim
	ModeExplicit
)

// ParseMode maps the wire string of the <with-defaults> element to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "report-all":
		return ModeReportAll, true
	case "report-all-tagged":
		return ModeReportAllTagged, true
	case "trim":
		return ModeTrim, true
	case "explicit":
		return ModeExplicit, true
	default:
		return ModeReportAll, false
	}
}

// Apply prunes and tags the scalars of root in place per spec.md §4.6's
// table. isRPCOutput distinguishes an <rpc-reply> data payload (where the
// "explicit" mode's config-only drop rule does not apply) from a
// get/get-config reply.
func Apply(mode Mode, root *Node, isRPCOutput bool) {
	applyChildren(mode, root, isRPCOutput)
}

func applyChildren(mode Mode, n *Node, isRPCOutput bool) {
	kept := n.children[:0]
	for _, c := range n.children {
		if isScalar(c.Kind) {
			if !applyToLeaf(mode, c, isRPCOutput) {
				continue
			}
		} else {
			applyChildren(mode, c, isRPCOutput)
		}
		kept = append(kept, c)
	}
	n.children = kept
	rebuildIndex(n)
}

func isScalar(k schema.NodeKind) bool {
	return k == schema.NodeLeaf || k == schema.NodeLeafList
}

// applyToLeaf applies spec.md §4.6's table to a single scalar node and
// reports whether it survives.
func applyToLeaf(mode Mode, n *Node, isRPCOutput bool) bool {
	matchesSchemaDefault := n.HasSchemaDefault && leafMatchesSchemaDefault(n)

	switch mode {
	case ModeReportAll:
		return true
	case ModeReportAllTagged:
		if n.Default || matchesSchemaDefault {
			n.tagged = true
		}
		return true
	case ModeTrim:
		return !(n.Default || matchesSchemaDefault)
	case ModeExplicit:
		if n.Default && n.Config && !isRPCOutput {
			return false
		}
		return true
	default:
		return true
	}
}

func leafMatchesSchemaDefault(n *Node) bool {
	if n.Kind != schema.NodeLeaf {
		return false
	}
	canon, err := value.ToCanonicalString(n.Value)
	if err != nil {
		return false
	}
	return canon == n.SchemaDefault
}

func rebuildIndex(n *Node) {
	n.childIndex = make(map[string]*Node, len(n.children))
	for _, c := range n.children {
		n.childIndex[c.Seg] = c
	}
}
