// Package schema defines the boundary this server consumes from the YANG
// schema engine (spec.md §1/§6). Parsing YANG, validating data trees, and
// evaluating XPath against them all live on the far side of this
// interface; this package only names what the rest of the server needs
// to ask of it.
package schema

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Client.Resolve when no schema node exists
// at the requested path.
var ErrNotFound = errors.New("schema: node not found")

// NodeKind classifies a schema node the way spec.md §3/§4.3 does.
type NodeKind int

const (
	NodeContainer NodeKind = iota
	NodeList
	NodeLeaf
	NodeLeafList
)

// LeafType describes everything the Value Marshaller (internal/value)
// needs about a leaf's declared type.
type LeafType struct {
	Base           string // e.g. "string", "decimal64", "identityref"
	FractionDigits uint8  // meaningful only when Base == "decimal64"
}

// NodeInfo is what Resolve returns about a single instance path.
type NodeInfo struct {
	Kind NodeKind
	// Module is the YANG module defining this node; Name is its local name.
	Module, Name string
	Type         LeafType
	// Config reports whether the node is config=true (used by the
	// with-defaults "explicit" mode, spec.md §4.6).
	Config bool
	// Presence is true for presence containers (spec.md §4.3 default-flag
	// propagation stop condition).
	Presence bool
	// Keys lists the key leaf names, in schema order, for NodeList.
	Keys []string
	// Default is the node's own (or nearest typedef's) default value, and
	// whether one exists at all.
	Default      string
	HasDefault   bool
}

// Client is the schema-engine boundary. All calls may block (they may
// hit a remote schema server, per spec.md's "external collaborator"
// framing) and take a context accordingly.
type Client interface {
	// Resolve returns schema information for the node at instance path p,
	// where p is expressed as a slice of "name" or "name[key='value']"
	// segments in the flat form the filter compiler and edit applier deal
	// in.
	Resolve(ctx context.Context, path []string) (*NodeInfo, error)

	// ModulesForLocalName returns every module defining a top-level data
	// node named localName, used by the filter compiler (spec.md §4.2
	// step 1) when a filter element carries no namespace.
	ModulesForLocalName(ctx context.Context, localName string) ([]string, error)

	// NamespaceToModule resolves an XML namespace URI to the module that
	// defines it.
	NamespaceToModule(ctx context.Context, namespace string) (string, bool)

	// ModulePrefix returns the conventional prefix for a module, used to
	// render instance-path segments as "prefix:name".
	ModulePrefix(module string) string
}
