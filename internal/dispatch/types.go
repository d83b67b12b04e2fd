package dispatch

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/edit"
	"github.com/openncd/netconfd/internal/tree"
)

// GetRequest is a parsed <get> RPC (spec.md §4.1: always running+state,
// no source element).
type GetRequest struct {
	Filter       *etree.Element
	WithDefaults tree.Mode
}

// GetConfigRequest is a parsed <get-config> RPC.
type GetConfigRequest struct {
	Source       backend.Datastore
	SourceURL    string
	Filter       *etree.Element
	WithDefaults tree.Mode
}

// EditConfigRequest is a parsed <edit-config> RPC.
type EditConfigRequest struct {
	Target    backend.Datastore
	Config    *etree.Element
	ConfigURL string
	Controls  edit.Controls
}

// CopyConfigRequest is a parsed <copy-config> RPC.
type CopyConfigRequest struct {
	Source, Target       backend.Datastore
	SourceIsConfig       bool
	SourceConfig         *etree.Element
	SourceURL, TargetURL string
}

// DeleteConfigRequest is a parsed <delete-config> RPC.
type DeleteConfigRequest struct {
	Target backend.Datastore
}

// LockRequest/UnlockRequest name the datastore a <lock>/<unlock> RPC
// targets.
type LockRequest struct{ Target backend.Datastore }
type UnlockRequest struct{ Target backend.Datastore }

// ValidateRequest is a parsed <validate> RPC; Source is running,
// candidate, startup, or (SourceIsConfig) an inline <config>.
type ValidateRequest struct {
	Source         backend.Datastore
	SourceIsConfig bool
	SourceConfig   *etree.Element
}

// Reply is the assembled data payload for a read RPC. Serializing it to
// wire XML is a transport concern outside this package's boundary
// (spec.md §1's Non-goals).
type Reply struct {
	Data *tree.Node
}

// ParseDatastore maps a <running/>, <startup/>, or <candidate/> element's
// tag to a backend.Datastore.
func ParseDatastore(tag string) (backend.Datastore, bool) {
	switch strings.TrimSpace(tag) {
	case "running":
		return backend.Running, true
	case "startup":
		return backend.Startup, true
	case "candidate":
		return backend.Candidate, true
	default:
		return backend.Running, false
	}
}

// splitPath turns a compiled/back-end "/prefix:a/prefix:b[...]" path
// string into the segment slice internal/tree's Assembler consumes.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return splitOnTopLevelSlash(p)
}

// splitOnTopLevelSlash splits p on '/' while treating bracketed key
// predicates as opaque, so a key value containing a literal slash (or,
// more commonly, the segment's own attribute predicates) never fractures
// a path segment.
func splitOnTopLevelSlash(p string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range p {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '/':
			if depth == 0 {
				out = append(out, p[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, p[start:])
	return out
}
