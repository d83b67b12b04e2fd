package dispatch

import (
	"context"
	"time"

	"github.com/beevik/etree"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/filter"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
)

// Get implements <get> (spec.md §4.1): always running+state, refreshed
// unconditionally before the read.
func (d *Dispatcher) Get(ctx context.Context, sess *session.Session, req GetRequest) (*Reply, error) {
	start := time.Now()
	reply, err := d.get(ctx, sess, backend.Running, req.Filter, req.WithDefaults)
	return reply, d.finishRPC("get", start, err)
}

// GetConfig implements <get-config> against the requested source
// datastore.
func (d *Dispatcher) GetConfig(ctx context.Context, sess *session.Session, req GetConfigRequest) (*Reply, error) {
	start := time.Now()
	if req.SourceURL != "" {
		reply, err := d.getConfigFromURL(ctx, req)
		return reply, d.finishRPC("get-config", start, err)
	}
	reply, err := d.get(ctx, sess, req.Source, req.Filter, req.WithDefaults)
	return reply, d.finishRPC("get-config", start, err)
}

func (d *Dispatcher) getConfigFromURL(ctx context.Context, req GetConfigRequest) (*Reply, error) {
	if !d.urlEnabled {
		return nil, ncerr.OperationNotSupported(ncerr.WithMessage("the url capability is not advertised"))
	}
	// Fetching and parsing the remote document is a transport concern;
	// this server only recognizes that the capability is enabled and
	// hands the URL to the fetcher.
	if _, err := d.urlFetch.Fetch(ctx, req.SourceURL); err != nil {
		return nil, err
	}
	return nil, ncerr.OperationNotSupported(ncerr.WithMessage("get-config from url is not implemented by this datastore"))
}

// get is the shared body of Get/GetConfig: lazy datastore switch,
// spec.md §4.1's refresh policy, filter compilation/routing, and tree
// assembly with the requested with-defaults mode.
func (d *Dispatcher) get(ctx context.Context, sess *session.Session, ds backend.Datastore, filterElem *etree.Element, mode tree.Mode) (*Reply, error) {
	back, err := selectDatastore(ctx, sess, ds)
	if err != nil {
		return nil, err
	}
	if err := refreshForRead(ctx, sess); err != nil {
		return nil, err
	}

	paths, err := filter.Compile(ctx, d.sc, filterElem)
	if err != nil {
		return nil, err
	}
	backendPaths, providerPaths := filter.Route(paths, sess.Options().ConfigOnly)

	root := tree.NewRoot()
	// An absent filter reads everything, back end and providers alike; a
	// present-but-empty filter (or one whose paths all routed to
	// in-process providers) reads nothing from the back end (RFC 6241
	// §6.4.2, spec.md §4.2).
	if filterElem == nil {
		backendPaths = []string{""}
		if !sess.Options().ConfigOnly {
			providerPaths = []string{filter.PrefixYangLibrary, filter.PrefixNetconfMonitoring, filter.PrefixNotifications}
		}
	}
	for _, p := range backendPaths {
		if err := assemblePath(ctx, d.assembler, back, root, p); err != nil {
			return nil, err
		}
	}
	for _, p := range providerPaths {
		if err := d.state.Serve(ctx, root, p); err != nil {
			return nil, err
		}
	}

	tree.Apply(mode, root, false)
	return &Reply{Data: root}, nil
}

// assemblePath drains back.GetItems(p) into root through the Tree
// Assembler (spec.md §4.3).
func assemblePath(ctx context.Context, asm *tree.Assembler, back backend.Session, root *tree.Node, p string) error {
	it, err := back.GetItems(ctx, p)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		item, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := asm.Insert(ctx, root, splitPath(item.Path), item.Value, item.IsDefault); err != nil {
			return err
		}
	}
}
