// Package xmlns provides the prefix/namespace bookkeeping the filter
// compiler (C2) and edit applier (C5) both need while walking a parsed
// XML element tree, adapted from the reference NETCONF library's
// xmlutil.PrefixMap for github.com/beevik/etree elements.
package xmlns

import (
	"sort"

	"github.com/beevik/etree"
)

// Map is a prefix→namespace-URI table scoped to one point in an XML tree.
type Map map[string]string

// Child returns a new Map reflecting elem's own xmlns declarations
// layered on top of parent (elem's declarations shadow parent's).
func (parent Map) Child(elem *etree.Element) Map {
	child := make(Map, len(parent)+2)
	for k, v := range parent {
		child[k] = v
	}
	for _, a := range elem.Attr {
		switch {
		case a.Space == "" && a.Key == "xmlns":
			child[""] = a.Value
		case a.Space == "xmlns":
			child[a.Key] = a.Value
		}
	}
	return child
}

// NamespaceOf resolves the namespace URI of elem's own tag under m.
func (m Map) NamespaceOf(elem *etree.Element) string {
	return m[elem.Space]
}

// NamespaceOfAttr resolves the namespace URI of an attribute, which (per
// XML namespace rules) never inherits the default (unprefixed) namespace:
// an attribute with no prefix simply has no namespace.
func (m Map) NamespaceOfAttr(a etree.Attr) (string, bool) {
	if a.Space == "" || a.Space == "xmlns" {
		return "", false
	}
	ns, ok := m[a.Space]
	return ns, ok
}

// SortedAttrs returns elem's non-namespace-declaration attributes sorted
// by (space, key) for deterministic output ordering.
func SortedAttrs(elem *etree.Element) []etree.Attr {
	var out []etree.Attr
	for _, a := range elem.Attr {
		if a.Key == "xmlns" || a.Space == "xmlns" {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Space != out[j].Space {
			return out[i].Space < out[j].Space
		}
		return out[i].Key < out[j].Key
	})
	return out
}
