// Package ncerr implements the NETCONF rpc-error taxonomy this server
// emits (see spec.md §7). It is adapted from the reference NETCONF
// library's ncerr package, narrowed to the tags this server actually
// raises and wired to this server's own trigger list.
package ncerr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// Type is the NETCONF error-type enumerate.
type Type int

const (
	TypeApplication Type = iota
	TypeProtocol
	TypeRPC
	TypeTransport
)

func (t Type) String() string {
	switch t {
	case TypeApplication:
		return "application"
	case TypeProtocol:
		return "protocol"
	case TypeRPC:
		return "rpc"
	case TypeTransport:
		return "transport"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t *Type) UnmarshalText(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "application":
		*t = TypeApplication
	case "protocol":
		*t = TypeProtocol
	case "rpc":
		*t = TypeRPC
	case "transport":
		*t = TypeTransport
	default:
		return errors.New("ncerr: unknown error-type")
	}
	return nil
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Severity is the NETCONF error-severity enumerate.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ErrorInfo carries the optional error-info children of an rpc-error.
type ErrorInfo struct {
	BadAttribute string `xml:"bad-attribute,omitempty" json:"bad-attribute,omitempty"`
	BadElement   string `xml:"bad-element,omitempty" json:"bad-element,omitempty"`
	BadNamespace string `xml:"bad-namespace,omitempty" json:"bad-namespace,omitempty"`
	SessionID    string `xml:"session-id,omitempty" json:"session-id,omitempty"`
}

// Error is a single NETCONF rpc-error. The zero value is not usable;
// construct instances with the Tag-named functions below.
type Error struct {
	XMLName  xml.Name   `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 rpc-error" json:"-"`
	Type     Type       `xml:"error-type" json:"error-type"`
	Tag      string     `xml:"error-tag" json:"error-tag"`
	Severity Severity   `xml:"error-severity" json:"error-severity"`
	AppTag   string     `xml:"error-app-tag,omitempty" json:"error-app-tag,omitempty"`
	Path     string     `xml:"error-path,omitempty" json:"error-path,omitempty"`
	Message  string     `xml:"error-message,omitempty" json:"error-message,omitempty"`
	Info     *ErrorInfo `xml:"error-info,omitempty" json:"error-info,omitempty"`
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s error, tag=%s", e.Type, e.Tag)
	if e.Path != "" {
		s += " path=" + e.Path
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Option customizes an *Error at construction time.
type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }
func WithPath(path string) Option   { return func(e *Error) { e.Path = path } }
func WithAppTag(tag string) Option  { return func(e *Error) { e.AppTag = tag } }

func build(errType Type, tag string, info *ErrorInfo, opts ...Option) *Error {
	e := &Error{Type: errType, Tag: tag, Info: info}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// The constructors below cover exactly the taxonomy in spec.md §7.

func OperationFailed(opts ...Option) *Error {
	return build(TypeApplication, "operation-failed", nil, opts...)
}

func OperationNotSupported(opts ...Option) *Error {
	return build(TypeApplication, "operation-not-supported", nil, opts...)
}

func InvalidValue(opts ...Option) *Error {
	return build(TypeApplication, "invalid-value", nil, opts...)
}

func DataExists(opts ...Option) *Error {
	return build(TypeApplication, "data-exists", nil, opts...)
}

func DataMissing(opts ...Option) *Error {
	return build(TypeApplication, "data-missing", nil, opts...)
}

// LockDenied always carries the session id of the current lock holder in
// error-info per RFC 6241 §13.9, and is always a protocol-layer error.
func LockDenied(holderSessionID string, opts ...Option) *Error {
	return build(TypeProtocol, "lock-denied", &ErrorInfo{SessionID: holderSessionID}, opts...)
}

func AccessDenied(opts ...Option) *Error {
	return build(TypeApplication, "access-denied", nil, opts...)
}

// UnknownNamespace covers the filter compiler's and edit applier's own
// namespace-resolution failure (spec.md §4.2 step 1): an element whose
// namespace does not resolve to any known module. spec.md §7's taxonomy
// has no dedicated tag for this; it falls under invalid-value ("malformed
// filter, unknown datastore name").
func UnknownNamespace(elementName, namespace string, opts ...Option) *Error {
	return build(TypeApplication, "invalid-value", &ErrorInfo{
		BadElement:   elementName,
		BadNamespace: namespace,
	}, opts...)
}

// AsRPCError converts an arbitrary error into an *Error, defaulting to
// operation-failed if it isn't already one (spec.md §7 propagation rule).
func AsRPCError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return OperationFailed(WithMessage(err.Error()))
}
