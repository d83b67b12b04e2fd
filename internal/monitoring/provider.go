// Package monitoring implements the in-process state providers spec.md
// §4.2's special-case routing carves out of the normal back-end read
// path: ietf-yang-library, ietf-netconf-monitoring, and nc-notifications
// are server-internal facts (open sessions, held locks, the advertised
// module set) that never touch the datastore back end.
package monitoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/filter"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
	"github.com/openncd/netconfd/internal/value"
)

const (
	nsNetconfMonitoring     = "urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"
	nsYangLibrary           = "urn:ietf:params:xml:ns:yang:ietf-yang-library"
	nsNotifications         = "urn:ietf:params:xml:ns:yang:ietf-nc-notifications"
	moduleNetconfMonitoring = "ietf-netconf-monitoring"
	moduleYangLibrary       = "ietf-yang-library"
	moduleNotifications     = "nc-notifications"
)

// ModuleInfo describes one module the yang-library provider advertises.
// The caller that constructs the Provider supplies the list (cmd/netconfd
// passes its reference schema's modules); the schema engine itself is not
// consulted for it, since
// enumerating "every module known to the backend schema" is outside the
// schema.Client boundary this server consumes (spec.md §6).
type ModuleInfo struct {
	Name, Revision, Namespace string
}

// Provider assembles the three special-case reply trees from the live
// session/lock state and the advertised module set.
type Provider struct {
	table   *session.Table
	locks   *session.LockManager
	modules []ModuleInfo
	sc      *staticSchema
	asm     *tree.Assembler
}

// New returns a Provider backed by table/locks for session and lock
// state, and modules for the yang-library module list.
func New(table *session.Table, locks *session.LockManager, modules []ModuleInfo) *Provider {
	sc := newStaticSchema(schemaDefs())
	return &Provider{table: table, locks: locks, modules: modules, sc: sc, asm: tree.New(sc)}
}

// Serve assembles the reply subtree for one compiled path already routed
// to an in-process provider by filter.Route directly into root, the same
// tree internal/dispatch's back-end read path assembles into. Providers
// ignore predicates baked into the requested path and always insert
// their full subtree for whichever of the three prefixes p names — the
// filter's own restriction to that prefix has already been done by the
// caller.
func (p *Provider) Serve(ctx context.Context, root *tree.Node, path string) error {
	switch {
	case hasPrefix(path, filter.PrefixNetconfMonitoring):
		if err := p.insertSessions(ctx, root); err != nil {
			return err
		}
		return p.insertLocks(ctx, root)
	case hasPrefix(path, filter.PrefixYangLibrary):
		return p.insertModules(ctx, root)
	case hasPrefix(path, filter.PrefixNotifications):
		return p.insertStreams(ctx, root)
	}
	return nil
}

func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}

func (p *Provider) insertSessions(ctx context.Context, root *tree.Node) error {
	for _, sess := range p.table.List() {
		base := []string{"ncm:netconf-state", "ncm:sessions", fmt.Sprintf("ncm:session[ncm:session-id='%s']", sess.ID)}
		if err := p.insertLeaf(ctx, root, append(base, "ncm:session-id"), "string", sess.ID); err != nil {
			return err
		}
		if err := p.insertLeaf(ctx, root, append(base, "ncm:transport"), "string", "netconf-ssh"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) insertLocks(ctx context.Context, root *tree.Node) error {
	for _, ds := range []backend.Datastore{backend.Running, backend.Startup, backend.Candidate} {
		holder, locked := p.locks.HolderOf(ds)
		if !locked {
			continue
		}
		base := []string{"ncm:netconf-state", "ncm:datastores", fmt.Sprintf("ncm:datastore[ncm:name='%s']", ds), "ncm:locks", "ncm:global-lock"}
		if err := p.insertLeaf(ctx, root, append(base, "ncm:locked-by-session"), "string", holder); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) insertModules(ctx context.Context, root *tree.Node) error {
	modules := append([]ModuleInfo{}, p.modules...)
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	for _, m := range modules {
		base := []string{"yl:modules-state", fmt.Sprintf("yl:module[yl:name='%s'][yl:revision='%s']", m.Name, m.Revision)}
		if err := p.insertLeaf(ctx, root, append(base, "yl:name"), "string", m.Name); err != nil {
			return err
		}
		if err := p.insertLeaf(ctx, root, append(base, "yl:revision"), "string", m.Revision); err != nil {
			return err
		}
		if err := p.insertLeaf(ctx, root, append(base, "yl:namespace"), "string", m.Namespace); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) insertStreams(ctx context.Context, root *tree.Node) error {
	base := []string{"ncn:netconf", "ncn:streams", "ncn:stream[ncn:name='NETCONF']"}
	if err := p.insertLeaf(ctx, root, append(base, "ncn:name"), "string", "NETCONF"); err != nil {
		return err
	}
	return p.insertLeaf(ctx, root, append(base, "ncn:description"), "string", "default NETCONF event stream")
}

func (p *Provider) insertLeaf(ctx context.Context, root *tree.Node, path []string, baseType, text string) error {
	v, err := value.FromLeafString(baseType, text, 0)
	if err != nil {
		return err
	}
	return p.asm.Insert(ctx, root, path, v, false)
}
