package edit

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/value"
	"github.com/openncd/netconfd/internal/xmlns"
)

// item is one planned back-end mutation, in the order it must be applied
// (spec.md §9: parent before children, keys before non-key siblings
// within a list entry).
type item struct {
	path string
	op   Operation
	kind schema.NodeKind
	val  *value.Value
}

// branch is the ordered item list for one top-level element under
// <config>, planned and (for continue-on-error) applied independently of
// its siblings.
type branch []item

// plan walks configElem's top-level children into one branch per child.
func plan(ctx context.Context, sc schema.Client, configElem *etree.Element, defaultOp Operation) ([]branch, error) {
	if configElem == nil {
		return nil, nil
	}
	rootNS := xmlns.Map{}.Child(configElem)

	var branches []branch
	for _, top := range configElem.ChildElements() {
		module, err := resolveEditModule(ctx, sc, top, rootNS.Child(top))
		if err != nil {
			return nil, err
		}
		var b branch
		if err := planElement(ctx, sc, top, rootNS.Child(top), nil, module, defaultOp, &b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// resolveEditModule requires an unambiguous module for edit content: an
// unnamespaced top-level element that matches more than one module can't
// be written to any one of them (spec.md §4.2's namespace-ambiguity rule
// applies just as much to writes as to filters).
func resolveEditModule(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map) (string, error) {
	nsURI := ns.NamespaceOf(elem)
	if nsURI == "" {
		mods, err := sc.ModulesForLocalName(ctx, elem.Tag)
		if err != nil {
			return "", errors.WithStack(err)
		}
		switch len(mods) {
		case 0:
			return "", ncerr.UnknownNamespace(elem.Tag, "")
		case 1:
			return mods[0], nil
		default:
			return "", ncerr.InvalidValue(ncerr.WithMessage(
				fmt.Sprintf("element %q is ambiguous across modules %v; a namespace is required", elem.Tag, mods)))
		}
	}
	module, ok := sc.NamespaceToModule(ctx, nsURI)
	if !ok {
		return "", ncerr.UnknownNamespace(elem.Tag, nsURI)
	}
	return module, nil
}

// planElement resolves elem's effective operation, appends its own item,
// and recurses into its children in spec.md §9 order.
func planElement(ctx context.Context, sc schema.Client, elem *etree.Element, ns xmlns.Map, parentPath []string, module string, inheritedOp Operation, out *branch) error {
	effectiveOp := inheritedOp
	if attr := elem.SelectAttr("operation"); attr != nil {
		if op, ok := ParseOperation(attr.Value); ok {
			effectiveOp = op
		}
	}

	prefix := sc.ModulePrefix(module)
	bareSeg := prefix + ":" + elem.Tag
	infoPath := append(append([]string{}, parentPath...), bareSeg)

	info, err := sc.Resolve(ctx, infoPath)
	if err != nil {
		return errors.Wrapf(err, "edit: resolving %q", strings.Join(infoPath, "/"))
	}

	switch info.Kind {
	case schema.NodeList:
		seg, keyChildren, err := listEntrySegment(sc, elem, module, bareSeg, info.Keys)
		if err != nil {
			return err
		}
		fullPath := append(append([]string{}, parentPath...), seg)
		*out = append(*out, item{path: renderPath(fullPath), op: effectiveOp, kind: schema.NodeList})

		// spec.md §9: emit key leaves before non-key siblings.
		for _, kc := range keyChildren {
			if err := planElement(ctx, sc, kc, ns.Child(kc), fullPath, module, effectiveOp, out); err != nil {
				return err
			}
		}
		for _, child := range elem.ChildElements() {
			if isKeyChild(child, info.Keys) {
				continue
			}
			if err := planElement(ctx, sc, child, ns.Child(child), fullPath, module, effectiveOp, out); err != nil {
				return err
			}
		}

	case schema.NodeContainer:
		fullPath := append(append([]string{}, parentPath...), bareSeg)
		*out = append(*out, item{path: renderPath(fullPath), op: effectiveOp, kind: schema.NodeContainer})
		for _, child := range elem.ChildElements() {
			if err := planElement(ctx, sc, child, ns.Child(child), fullPath, module, effectiveOp, out); err != nil {
				return err
			}
		}

	default: // NodeLeaf, NodeLeafList
		fullPath := append(append([]string{}, parentPath...), bareSeg)
		it := item{path: renderPath(fullPath), op: effectiveOp, kind: info.Kind}
		if effectiveOp != OpDelete && effectiveOp != OpRemove && effectiveOp != OpNone {
			v, err := value.FromLeafString(info.Type.Base, elem.Text(), info.Type.FractionDigits)
			if err != nil {
				return errors.Wrapf(err, "edit: leaf %q", strings.Join(fullPath, "/"))
			}
			it.val = &v
		}
		*out = append(*out, it)
	}
	return nil
}

// listEntrySegment reads the list's key leaf values out of elem's
// children (in schema key order) and builds the "prefix:name[k='v']..."
// instance segment, returning the key child elements in that same order
// so the caller can emit them first (spec.md §9).
func listEntrySegment(sc schema.Client, elem *etree.Element, module, bareSeg string, keys []string) (string, []*etree.Element, error) {
	seg := bareSeg
	prefix := sc.ModulePrefix(module)
	keyChildren := make([]*etree.Element, 0, len(keys))
	for _, k := range keys {
		kc := findChildByLocalName(elem, k)
		if kc == nil {
			return "", nil, ncerr.InvalidValue(ncerr.WithMessage(
				fmt.Sprintf("list entry %q is missing key leaf %q", bareSeg, k)))
		}
		keyChildren = append(keyChildren, kc)
		seg += fmt.Sprintf("[%s:%s='%s']", prefix, k, strings.TrimSpace(kc.Text()))
	}
	return seg, keyChildren, nil
}

func findChildByLocalName(elem *etree.Element, name string) *etree.Element {
	for _, c := range elem.ChildElements() {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

func isKeyChild(child *etree.Element, keys []string) bool {
	for _, k := range keys {
		if child.Tag == k {
			return true
		}
	}
	return false
}

func renderPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}
