package monitoring

import (
	"context"
	"strings"

	"github.com/openncd/netconfd/internal/schema"
)

// staticSchema is a hand-built schema.Client covering exactly the three
// in-process state trees this package serves (spec.md §4.2's special-case
// routing prefixes). It plays the same role the fixture package plays for
// tests, but is a production component: the real YANG schema engine on
// the far side of internal/schema never needs to know about these
// server-internal, non-configurable trees.
type staticSchema struct {
	nodes   map[string]schema.NodeInfo
	byLocal map[string][]string
}

func newStaticSchema(defs []nodeDef) *staticSchema {
	s := &staticSchema{nodes: map[string]schema.NodeInfo{}, byLocal: map[string][]string{}}
	for _, d := range defs {
		s.nodes[strings.Join(d.path, "/")] = d.info
		if len(d.path) == 1 {
			local := stripPredicate(d.path[0])
			s.byLocal[local] = append(s.byLocal[local], d.info.Module)
		}
	}
	return s
}

type nodeDef struct {
	path []string
	info schema.NodeInfo
}

func stripPredicate(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i]
	}
	return seg
}

func normalize(path []string) string {
	out := make([]string, len(path))
	for i, seg := range path {
		out[i] = stripPredicate(seg)
	}
	return strings.Join(out, "/")
}

func (s *staticSchema) Resolve(_ context.Context, path []string) (*schema.NodeInfo, error) {
	info, ok := s.nodes[normalize(path)]
	if !ok {
		return nil, schema.ErrNotFound
	}
	return &info, nil
}

func (s *staticSchema) ModulesForLocalName(_ context.Context, localName string) ([]string, error) {
	return s.byLocal[localName], nil
}

func (s *staticSchema) NamespaceToModule(_ context.Context, namespace string) (string, bool) {
	switch namespace {
	case nsNetconfMonitoring:
		return moduleNetconfMonitoring, true
	case nsYangLibrary:
		return moduleYangLibrary, true
	case nsNotifications:
		return moduleNotifications, true
	default:
		return "", false
	}
}

func (s *staticSchema) ModulePrefix(module string) string {
	switch module {
	case moduleNetconfMonitoring:
		return "ncm"
	case moduleYangLibrary:
		return "yl"
	case moduleNotifications:
		return "ncn"
	default:
		return module
	}
}

func container(module string, path ...string) nodeDef {
	return nodeDef{path: path, info: schema.NodeInfo{Kind: schema.NodeContainer, Module: module, Name: stripPredicate(path[len(path)-1]), Config: false}}
}

func list(module string, keys []string, path ...string) nodeDef {
	return nodeDef{path: path, info: schema.NodeInfo{Kind: schema.NodeList, Module: module, Name: stripPredicate(path[len(path)-1]), Keys: keys, Config: false}}
}

func leaf(module, baseType string, path ...string) nodeDef {
	return nodeDef{path: path, info: schema.NodeInfo{Kind: schema.NodeLeaf, Module: module, Name: stripPredicate(path[len(path)-1]), Type: schema.LeafType{Base: baseType}, Config: false}}
}

// schemaDefs enumerates every instance path (and ancestor) the three
// providers assemble. Nothing under these three prefixes is
// configuration data (spec.md §4.2), so every node is Config: false;
// with-defaults "explicit" mode only drops default-flagged config
// leaves, so it keeps these nodes.
func schemaDefs() []nodeDef {
	const ncm, yl, ncn = moduleNetconfMonitoring, moduleYangLibrary, moduleNotifications
	return []nodeDef{
		container(ncm, "ncm:netconf-state"),
		container(ncm, "ncm:netconf-state", "ncm:sessions"),
		list(ncm, []string{"session-id"}, "ncm:netconf-state", "ncm:sessions", "ncm:session"),
		leaf(ncm, "string", "ncm:netconf-state", "ncm:sessions", "ncm:session", "ncm:session-id"),
		leaf(ncm, "string", "ncm:netconf-state", "ncm:sessions", "ncm:session", "ncm:transport"),
		container(ncm, "ncm:netconf-state", "ncm:datastores"),
		list(ncm, []string{"name"}, "ncm:netconf-state", "ncm:datastores", "ncm:datastore"),
		leaf(ncm, "string", "ncm:netconf-state", "ncm:datastores", "ncm:datastore", "ncm:name"),
		container(ncm, "ncm:netconf-state", "ncm:datastores", "ncm:datastore", "ncm:locks"),
		container(ncm, "ncm:netconf-state", "ncm:datastores", "ncm:datastore", "ncm:locks", "ncm:global-lock"),
		leaf(ncm, "string", "ncm:netconf-state", "ncm:datastores", "ncm:datastore", "ncm:locks", "ncm:global-lock", "ncm:locked-by-session"),

		container(yl, "yl:modules-state"),
		list(yl, []string{"name", "revision"}, "yl:modules-state", "yl:module"),
		leaf(yl, "string", "yl:modules-state", "yl:module", "yl:name"),
		leaf(yl, "string", "yl:modules-state", "yl:module", "yl:revision"),
		leaf(yl, "string", "yl:modules-state", "yl:module", "yl:namespace"),

		container(ncn, "ncn:netconf"),
		container(ncn, "ncn:netconf", "ncn:streams"),
		list(ncn, []string{"name"}, "ncn:netconf", "ncn:streams", "ncn:stream"),
		leaf(ncn, "string", "ncn:netconf", "ncn:streams", "ncn:stream", "ncn:name"),
		leaf(ncn, "string", "ncn:netconf", "ncn:streams", "ncn:stream", "ncn:description"),
	}
}
