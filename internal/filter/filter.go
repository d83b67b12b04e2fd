package filter

import (
	"context"
	"strings"

	"github.com/beevik/etree"

	"github.com/openncd/netconfd/internal/schema"
)

// State-provider prefixes routed in-process instead of to the back end
// (spec.md §4.2 "special-case routing" and §6 "schema roots served
// in-process").
const (
	PrefixYangLibrary        = "/ietf-yang-library:"
	PrefixNetconfMonitoring  = "/ietf-netconf-monitoring:"
	PrefixNotifications      = "/nc-notifications:"
)

// Compile compiles a get/get-config <filter> element into an ordered
// list of instance-path strings (spec.md §4.2), dispatching on the
// filter's type attribute.
func Compile(ctx context.Context, sc schema.Client, filterElem *etree.Element) ([]string, error) {
	if filterElem == nil {
		return nil, nil
	}
	if IsXPathFilter(filterElem) {
		return CompileXPath(filterElem)
	}
	return CompileSubtree(ctx, sc, filterElem)
}

// Route splits a compiled path list into back-end paths and paths served
// by in-process state providers, applying the config-only exclusion from
// spec.md §4.2 (the three in-process prefixes yield no results in
// config-only mode, since they are state data only).
func Route(paths []string, configOnly bool) (backendPaths, providerPaths []string) {
	for _, p := range paths {
		if isProviderPath(p) {
			if !configOnly {
				providerPaths = append(providerPaths, p)
			}
			continue
		}
		backendPaths = append(backendPaths, p)
	}
	return backendPaths, providerPaths
}

func isProviderPath(p string) bool {
	return strings.HasPrefix(p, PrefixYangLibrary) ||
		strings.HasPrefix(p, PrefixNetconfMonitoring) ||
		strings.HasPrefix(p, PrefixNotifications)
}
