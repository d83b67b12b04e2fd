// Package fixture is an in-memory schema.Client used by the tests and by
// cmd/netconfd as its reference runtime schema, in the same spirit as the teacher's own local, non-remote schema store
// (pkg/schema/local.go): a small map-backed stand-in for the real YANG
// schema engine.
package fixture

import (
	"context"
	"strings"

	"github.com/openncd/netconfd/internal/schema"
)

type entry struct {
	info   schema.NodeInfo
	module string
}

// Store is a hand-populated schema fixture keyed by the slash-joined
// instance path with list predicates stripped.
type Store struct {
	nodes      map[string]entry
	byLocal    map[string][]string
	nsToModule map[string]string
	prefixes   map[string]string
}

func New() *Store {
	return &Store{
		nodes:      map[string]entry{},
		byLocal:    map[string][]string{},
		nsToModule: map[string]string{},
		prefixes:   map[string]string{},
	}
}

// RegisterModule declares a module's namespace and conventional prefix.
func (s *Store) RegisterModule(module, namespace, prefix string) {
	s.nsToModule[namespace] = module
	s.prefixes[module] = prefix
}

// RegisterNode adds a node at the given flat path (e.g.
// []string{"interfaces", "interface[name='eth0']", "mtu"}) belonging to
// module. Key predicates in path are cosmetic: a real schema engine
// resolves structure independent of instance values, so the lookup key
// strips them the same way Resolve does.
func (s *Store) RegisterNode(module string, path []string, info schema.NodeInfo) {
	info.Module = module
	key := normalizePath(path)
	s.nodes[key] = entry{info: info, module: module}
	if len(path) == 1 {
		local := stripPredicate(path[0])
		s.byLocal[local] = append(s.byLocal[local], module)
	}
}

func stripPredicate(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i]
	}
	return seg
}

func normalizePath(path []string) string {
	stripped := make([]string, len(path))
	for i, seg := range path {
		stripped[i] = stripPredicate(seg)
	}
	return strings.Join(stripped, "/")
}

func (s *Store) Resolve(_ context.Context, path []string) (*schema.NodeInfo, error) {
	key := normalizePath(path)
	e, ok := s.nodes[key]
	if !ok {
		return nil, schema.ErrNotFound
	}
	info := e.info
	return &info, nil
}

func (s *Store) ModulesForLocalName(_ context.Context, localName string) ([]string, error) {
	return s.byLocal[localName], nil
}

func (s *Store) NamespaceToModule(_ context.Context, namespace string) (string, bool) {
	m, ok := s.nsToModule[namespace]
	return m, ok
}

func (s *Store) ModulePrefix(module string) string {
	if p, ok := s.prefixes[module]; ok {
		return p
	}
	return module
}
