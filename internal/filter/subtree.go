// Package filter implements the Filter Compiler (spec.md §4.2, C2):
// turning a NETCONF subtree or XPath filter into an ordered list of
// instance-path expressions.
package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/xmlns"
)

// CompileSubtree compiles the children of a parsed <filter type="subtree">
// element into an ordered list of instance-path strings, per spec.md
// §4.2's containment/selection/content-match classification.
//
// The result is stable across repeated calls on the same input (spec.md
// invariant 2): namespace resolution walks the tree in document order
// and every branch point iterates children in document order too.
func CompileSubtree(ctx context.Context, sc schema.Client, filterElem *etree.Element) ([]string, error) {
	if filterElem == nil {
		return nil, nil
	}
	rootMap := xmlns.Map{}.Child(filterElem)

	var out []string
	for _, top := range filterElem.ChildElements() {
		paths, err := compileTopLevel(ctx, sc, top, rootMap.Child(top))
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// compileTopLevel resolves a top-level filter element's namespace to one
// or more modules (spec.md §4.2 step 1) and compiles one path per module.
func compileTopLevel(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map) ([]string, error) {
	modules, err := resolveModules(ctx, sc, elem, ns)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, module := range modules {
		paths, err := compileElement(ctx, sc, elem, ns, "", module)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// resolveModules implements spec.md §4.2 step 1: a namespaced element
// resolves to exactly the module owning that namespace (invalid-value if
// unknown); an unnamespaced element matches every module defining a
// top-level node of that name.
func resolveModules(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map) ([]string, error) {
	nsURI := ns.NamespaceOf(elem)
	if nsURI == "" {
		mods, err := sc.ModulesForLocalName(ctx, elem.Tag)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return mods, nil
	}
	module, ok := sc.NamespaceToModule(ctx, nsURI)
	if !ok {
		return nil, ncerr.UnknownNamespace(elem.Tag, nsURI)
	}
	return []string{module}, nil
}

// compileElement builds the instance-path segment for elem (appending it
// to parentPath) including any attribute predicates, then dispatches to
// compileChildren to handle content-match/selection/containment
// classification of its own children.
func compileElement(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map, parentPath, module string) ([]string, error) {
	segPath, err := appendSegment(ctx, sc, elem, ns, parentPath, module)
	if err != nil {
		return nil, err
	}
	if len(elem.ChildElements()) == 0 {
		// spec.md §4.2 step 3: a selection leaf (no children) terminates a
		// path here, whether or not it carries text — leaves with no child
		// elements and non-whitespace text are handled as content-match
		// predicates by the *parent's* call to compileChildren (whatever
		// siblings they have) before we ever get here; a
		// node reached via compileElement directly (top-level, or a
		// non-content-match child) with no children is always a plain
		// selection leaf.
		return []string{segPath}, nil
	}
	return compileChildren(ctx, sc, elem, ns, segPath, module)
}

// appendSegment renders elem's own "/prefix:name[@prefix:attr='v']..."
// segment and appends it to parentPath.
func appendSegment(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map, parentPath, module string) (string, error) {
	seg := fmt.Sprintf("%s/%s:%s", parentPath, sc.ModulePrefix(module), elem.Tag)
	for _, a := range xmlns.SortedAttrs(elem) {
		attrNS, ok := ns.NamespaceOfAttr(a)
		if !ok {
			continue
		}
		attrModule, ok := sc.NamespaceToModule(ctx, attrNS)
		if !ok {
			// spec.md §4.2: "attributes ... whose namespace resolves to a
			// known module" — silently skip attributes in unknown
			// namespaces rather than failing the whole filter.
			continue
		}
		seg += fmt.Sprintf("[@%s:%s='%s']", sc.ModulePrefix(attrModule), a.Key, a.Value)
	}
	return seg, nil
}

// compileChildren classifies elem's children into content-match and
// containment/selection groups and implements spec.md §4.2's branching
// rules: content-match children attach a predicate to the current path
// and branch off a copy naming themselves; the remaining children each
// branch independently from the (possibly content-match-augmented) base
// path.
func compileChildren(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map, path, module string) ([]string, error) {
	children := elem.ChildElements()

	var contentMatches, structural []*etree.Element
	for _, child := range children {
		if isContentMatch(child) {
			contentMatches = append(contentMatches, child)
		} else {
			structural = append(structural, child)
		}
	}

	// First pass: fold every content-match child into the base path as an
	// AND'd predicate, so siblings restrict the same parent instance
	// jointly (spec.md §4.2 and RFC 6241's own subtree-filter examples).
	base := path
	for _, cm := range contentMatches {
		text := strings.TrimSpace(cm.Text())
		base += fmt.Sprintf("[%s:%s='%s']", sc.ModulePrefix(module), cm.Tag, text)
	}

	var out []string
	// Second pass: branch a copy naming each content-match leaf itself,
	// so the matched node still appears in the compiled output (spec.md
	// §4.2: "so the matched node appears in the output").
	for _, cm := range contentMatches {
		out = append(out, base+fmt.Sprintf("/%s:%s", sc.ModulePrefix(module), cm.Tag))
	}

	for _, child := range structural {
		childNS := ns.Child(child)
		childPaths, err := compileElement(ctx, sc, child, childNS, base, module)
		if err != nil {
			return nil, err
		}
		out = append(out, childPaths...)
	}
	return out, nil
}

// isContentMatch classifies a node per spec.md §4.2: no element children,
// non-whitespace text.
func isContentMatch(elem *etree.Element) bool {
	return len(elem.ChildElements()) == 0 && strings.TrimSpace(elem.Text()) != ""
}
