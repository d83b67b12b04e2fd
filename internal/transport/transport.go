// Package transport defines the parsed-RPC boundary between this server
// and its NETCONF transport (spec.md §6): an already-parsed <rpc>
// payload in, an already-assembled reply tree or rpc-error out. Framing
// the bytes on the wire, SSH/TLS session setup, and the <hello> capability
// exchange are all out of scope (spec.md Non-goals) and live on the far
// side of this boundary, the same way internal/backend and internal/schema
// name boundaries without owning their concrete external collaborators.
package transport

import (
	"context"
	"strconv"

	"github.com/beevik/etree"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/dispatch"
	"github.com/openncd/netconfd/internal/edit"
	"github.com/openncd/netconfd/internal/ncerr"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/tree"
)

// Request is one parsed NETCONF <rpc> payload.
type Request struct {
	SessionID string
	MessageID string
	// Op is the local name of the <rpc>'s single child element (e.g.
	// "get", "edit-config").
	Op string
	// Body is that child element itself, carrying the operation's own
	// parameters as further children/attributes.
	Body *etree.Element
}

// Reply is the outcome of handling one Request: exactly one of Data or
// Err is meaningful (Data may be nil for RPCs with no return payload,
// like <commit>, even on success).
type Reply struct {
	MessageID string
	Data      *tree.Node
	Err       error
}

// Handler translates Requests into Dispatcher calls, owning the
// session-table lookup and the per-operation XML-to-Go-struct parsing
// that spec.md's boundary interfaces leave to "the transport layer" —
// this package IS that layer's Go-native half.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	table      *session.Table
}

// NewHandler returns a Handler dispatching against d, resolving sessions
// from table.
func NewHandler(d *dispatch.Dispatcher, table *session.Table) *Handler {
	return &Handler{dispatcher: d, table: table}
}

// Handle looks up req.SessionID and dispatches req.Body per req.Op.
func (h *Handler) Handle(ctx context.Context, req Request) Reply {
	sess, ok := h.table.Get(req.SessionID)
	if !ok {
		return Reply{MessageID: req.MessageID, Err: ncerr.OperationFailed(ncerr.WithMessage("unknown session"))}
	}

	data, err := h.dispatch(ctx, sess, req.Op, req.Body)
	return Reply{MessageID: req.MessageID, Data: data, Err: err}
}

func (h *Handler) dispatch(ctx context.Context, sess *session.Session, op string, body *etree.Element) (*tree.Node, error) {
	switch op {
	case "get":
		reply, err := h.dispatcher.Get(ctx, sess, dispatch.GetRequest{
			Filter:       findChild(body, "filter"),
			WithDefaults: parseWithDefaults(body),
		})
		return dataOf(reply), err

	case "get-config":
		source, sourceURL, err := parseSourceSelector(body)
		if err != nil {
			return nil, err
		}
		reply, err := h.dispatcher.GetConfig(ctx, sess, dispatch.GetConfigRequest{
			Source:       source,
			SourceURL:    sourceURL,
			Filter:       findChild(body, "filter"),
			WithDefaults: parseWithDefaults(body),
		})
		return dataOf(reply), err

	case "edit-config":
		target, err := parseTargetSelector(body)
		if err != nil {
			return nil, err
		}
		ctrl, err := parseControls(body)
		if err != nil {
			return nil, err
		}
		req := dispatch.EditConfigRequest{Target: target, Controls: ctrl}
		if url := findChild(body, "url"); url != nil {
			req.ConfigURL = url.Text()
		} else {
			req.Config = findChild(body, "config")
		}
		return nil, h.dispatcher.EditConfig(ctx, sess, req)

	case "copy-config":
		return nil, h.copyConfig(ctx, sess, body)

	case "delete-config":
		target, err := parseTargetSelector(body)
		if err != nil {
			return nil, err
		}
		return nil, h.dispatcher.DeleteConfig(ctx, sess, dispatch.DeleteConfigRequest{Target: target})

	case "lock":
		target, err := parseTargetSelector(body)
		if err != nil {
			return nil, err
		}
		return nil, h.dispatcher.Lock(ctx, sess, dispatch.LockRequest{Target: target})

	case "unlock":
		target, err := parseTargetSelector(body)
		if err != nil {
			return nil, err
		}
		return nil, h.dispatcher.Unlock(ctx, sess, dispatch.UnlockRequest{Target: target})

	case "commit":
		return nil, h.dispatcher.Commit(ctx, sess)

	case "discard-changes":
		return nil, h.dispatcher.DiscardChanges(ctx, sess)

	case "validate":
		return nil, h.validate(ctx, sess, body)

	default:
		return nil, ncerr.OperationNotSupported(ncerr.WithMessage("unknown rpc: " + op))
	}
}

func (h *Handler) copyConfig(ctx context.Context, sess *session.Session, body *etree.Element) error {
	target, err := parseElementSelector(body, "target")
	if err != nil {
		return err
	}
	req := dispatch.CopyConfigRequest{}
	if ds, ok := dispatch.ParseDatastore(target.Tag); ok {
		req.Target = ds
	} else if url := findChild(target, "url"); url != nil {
		req.TargetURL = url.Text()
	}

	source, err := parseElementSelector(body, "source")
	if err != nil {
		return err
	}
	if ds, ok := dispatch.ParseDatastore(source.Tag); ok {
		req.Source = ds
	} else if url := findChild(source, "url"); url != nil {
		req.SourceURL = url.Text()
	} else if source.Tag == "config" {
		req.SourceIsConfig = true
		req.SourceConfig = source
	}
	return h.dispatcher.CopyConfig(ctx, sess, req)
}

func (h *Handler) validate(ctx context.Context, sess *session.Session, body *etree.Element) error {
	source, err := parseElementSelector(body, "source")
	if err != nil {
		return err
	}
	req := dispatch.ValidateRequest{}
	if ds, ok := dispatch.ParseDatastore(source.Tag); ok {
		req.Source = ds
	} else if source.Tag == "config" {
		req.SourceIsConfig = true
		req.SourceConfig = source
	} else {
		return ncerr.InvalidValue(ncerr.WithMessage("validate source must be a datastore or inline config"))
	}
	return h.dispatcher.Validate(ctx, sess, req)
}

func dataOf(r *dispatch.Reply) *tree.Node {
	if r == nil {
		return nil
	}
	return r.Data
}

func findChild(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElement(tag)
}

// parseElementSelector returns the single child of a <source>/<target>
// container element (RFC 6241's own encoding for these choices).
func parseElementSelector(body *etree.Element, container string) (*etree.Element, error) {
	c := findChild(body, container)
	if c == nil || len(c.ChildElements()) == 0 {
		return nil, ncerr.InvalidValue(ncerr.WithMessage("missing <" + container + "> selector"))
	}
	return c.ChildElements()[0], nil
}

func parseTargetSelector(body *etree.Element) (backend.Datastore, error) {
	el, err := parseElementSelector(body, "target")
	if err != nil {
		return backend.Running, err
	}
	ds, ok := dispatch.ParseDatastore(el.Tag)
	if !ok {
		return backend.Running, ncerr.InvalidValue(ncerr.WithMessage("unsupported target datastore " + el.Tag))
	}
	return ds, nil
}

func parseSourceSelector(body *etree.Element) (backend.Datastore, string, error) {
	c := findChild(body, "source")
	if c == nil || len(c.ChildElements()) == 0 {
		return backend.Running, "", nil
	}
	el := c.ChildElements()[0]
	if url := findChild(c, "url"); url != nil {
		return backend.Running, url.Text(), nil
	}
	ds, ok := dispatch.ParseDatastore(el.Tag)
	if !ok {
		return backend.Running, "", ncerr.InvalidValue(ncerr.WithMessage("unsupported source datastore " + el.Tag))
	}
	return ds, "", nil
}

func parseWithDefaults(body *etree.Element) tree.Mode {
	el := findChild(body, "with-defaults")
	if el == nil {
		return tree.ModeReportAll
	}
	mode, ok := tree.ParseMode(el.Text())
	if !ok {
		return tree.ModeReportAll
	}
	return mode
}

func parseControls(body *etree.Element) (edit.Controls, error) {
	ctrl := edit.Controls{
		DefaultOperation: edit.DefaultOperationMerge,
		TestOption:       edit.TestThenSet,
		ErrorOption:      edit.StopOnError,
	}
	if el := findChild(body, "default-operation"); el != nil {
		op, ok := edit.ParseDefaultOperation(el.Text())
		if !ok {
			return ctrl, ncerr.InvalidValue(ncerr.WithMessage("unsupported default-operation " + el.Text()))
		}
		ctrl.DefaultOperation = op
	}
	if el := findChild(body, "test-option"); el != nil {
		opt, ok := edit.ParseTestOption(el.Text())
		if !ok {
			return ctrl, ncerr.InvalidValue(ncerr.WithMessage("unsupported test-option " + el.Text()))
		}
		ctrl.TestOption = opt
	}
	if el := findChild(body, "error-option"); el != nil {
		opt, ok := edit.ParseErrorOption(el.Text())
		if !ok {
			return ctrl, ncerr.InvalidValue(ncerr.WithMessage("unsupported error-option " + el.Text()))
		}
		ctrl.ErrorOption = opt
	}
	return ctrl, nil
}

// NextMessageID formats n as a decimal message-id for callers that need
// to mint outgoing message-ids; the transport layer
// proper receives message-ids from the client instead.
func NextMessageID(n uint64) string { return strconv.FormatUint(n, 10) }
