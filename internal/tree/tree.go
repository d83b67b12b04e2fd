// Package tree implements the Tree Assembler (spec.md §4.3, C3): building
// a schema-conformant data tree out of a stream of (path, value) pairs
// coming back from the datastore back end, with default-flag propagation.
package tree

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/value"
)

// Node is one instance in the assembled tree. The root node returned by
// NewRoot carries no schema identity of its own; every other node is
// created lazily by Assembler.Insert the first time a path walks through
// it, the same "create intermediate ancestors as needed" rule spec.md
// §4.3 describes.
type Node struct {
	// Seg is this node's own path segment, e.g. "if:interface[if:name='eth0']".
	Seg    string
	Module string
	Kind   schema.NodeKind

	// Value is meaningful only when Kind is NodeLeaf; Values accumulates
	// entries for NodeLeafList.
	Value  value.Value
	Values []value.Value

	// Default is the per-instance default flag spec.md §4.3 propagates.
	Default bool

	// Presence and Keys mirror the schema facts that stop propagation
	// (spec.md §4.3: "until reaching either a presence container or a
	// list with keys").
	Presence bool
	Keys     []string

	// Config and schema-default facts feed the With-Defaults Filter (C4).
	Config           bool
	SchemaDefault    string
	HasSchemaDefault bool

	// tagged is set by the With-Defaults Filter under report-all-tagged
	// (spec.md §4.6) for a leaf that must render with wd:default="true".
	tagged bool

	children   []*Node
	childIndex map[string]*Node
}

// Tagged reports whether the With-Defaults Filter marked n as a schema
// default under report-all-tagged mode.
func (n *Node) Tagged() bool {
	return n.tagged
}

// NewRoot returns an empty tree root.
func NewRoot() *Node {
	return &Node{Kind: schema.NodeContainer, childIndex: map[string]*Node{}}
}

// Children returns n's children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) child(seg string) (*Node, bool) {
	c, ok := n.childIndex[seg]
	return c, ok
}

func (n *Node) addChild(c *Node) {
	if n.childIndex == nil {
		n.childIndex = map[string]*Node{}
	}
	n.children = append(n.children, c)
	n.childIndex[c.Seg] = c
}

// Assembler assembles trees against a schema, per spec.md §4.3.
type Assembler struct {
	sc schema.Client
}

// New returns an Assembler backed by sc.
func New(sc schema.Client) *Assembler {
	return &Assembler{sc: sc}
}

// Insert assembles the (path, value) pair into root, creating any missing
// intermediate ancestors, and propagates the default flag per spec.md
// §4.3. path is a slice of segments as produced by internal/filter and
// internal/backend ("prefix:name" or "prefix:name[prefix:key='value']").
//
// Insert is idempotent: inserting the same path with the same value and
// default flag twice leaves the tree unchanged (spec.md §4.3's "update
// semantics").
func (a *Assembler) Insert(ctx context.Context, root *Node, path []string, v value.Value, isDefault bool) error {
	if len(path) == 0 {
		return errors.New("tree: empty path")
	}

	cur := root
	ancestors := make([]*Node, 0, len(path))
	for i, seg := range path {
		next, ok := cur.child(seg)
		if !ok {
			info, err := a.sc.Resolve(ctx, path[:i+1])
			if err != nil {
				return errors.Wrapf(err, "tree: resolving %q", strings.Join(path[:i+1], "/"))
			}
			next = &Node{
				Seg:              seg,
				Module:           info.Module,
				Kind:             info.Kind,
				Presence:         info.Presence,
				Keys:             info.Keys,
				Config:           info.Config,
				SchemaDefault:    info.Default,
				HasSchemaDefault: info.HasDefault,
				childIndex:       map[string]*Node{},
			}
			cur.addChild(next)
		}
		ancestors = append(ancestors, cur)
		cur = next
	}

	switch cur.Kind {
	case schema.NodeLeafList:
		dup := false
		for _, existing := range cur.Values {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			cur.Values = append(cur.Values, v)
		}
	default:
		cur.Value = v
	}
	cur.Default = isDefault

	if isDefault {
		markDescendantsDefault(cur)
		propagateDefaultUp(ancestors)
	} else {
		clearDefaultUp(ancestors)
	}
	return nil
}

// markDescendantsDefault marks n and every already-assembled descendant
// as default, per spec.md §4.3's "walk from the new node down to the
// first descendant leaf".
func markDescendantsDefault(n *Node) {
	n.Default = true
	for _, c := range n.children {
		markDescendantsDefault(c)
	}
}

// propagateDefaultUp walks ancestors from the nearest parent outward,
// setting the default flag until it reaches a presence container or a
// keyed list, which breaks the propagation (spec.md §4.3).
func propagateDefaultUp(ancestors []*Node) {
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		if isPropagationBoundary(a) {
			return
		}
		a.Default = true
	}
}

// clearDefaultUp clears the default flag on every ancestor that
// currently carries it, unconditionally (spec.md §4.3: a non-default
// insertion clears default on "all ancestors that currently carry it",
// with no boundary exception).
func clearDefaultUp(ancestors []*Node) {
	for _, a := range ancestors {
		a.Default = false
	}
}

func isPropagationBoundary(n *Node) bool {
	return n.Presence || (n.Kind == schema.NodeList && len(n.Keys) > 0)
}

var predicateRE = regexp.MustCompile(`\[[^\]]+\]`)

// ParseKeyValues extracts the "prefix:key='value'" predicates from a list
// entry segment into a key(local name)->value map, for callers that need
// to render a list entry's own key leaves without re-walking the tree.
func ParseKeyValues(seg string) map[string]string {
	matches := predicateRE.FindAllString(seg, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]string, len(matches))
	for _, m := range matches {
		inner := strings.TrimSuffix(strings.TrimPrefix(m, "["), "]")
		eq := strings.IndexByte(inner, '=')
		if eq < 0 {
			continue
		}
		key := inner[:eq]
		if ci := strings.IndexByte(key, ':'); ci >= 0 {
			key = key[ci+1:]
		}
		val := strings.Trim(inner[eq+1:], "'\"")
		out[key] = val
	}
	return out
}
