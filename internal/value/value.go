// Package value implements the Value Marshaller (spec.md §4.3, C1): a
// tagged-union representation of a datastore scalar and bidirectional
// conversion against schema-typed leaf strings.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the base YANG type a Value carries, per spec.md §3's
// "tagged value" data model.
type Kind int

const (
	KindBinary Kind = iota
	KindBits
	KindBoolean
	KindDecimal64
	KindEmpty
	KindEnum
	KindIdentityref
	KindInstanceIdentifier
	KindString
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
)

// Value is a sum type keyed by Kind, per spec.md §9 ("model as a sum
// type keyed by base type; do not use inheritance"). Only the field(s)
// relevant to Kind are meaningful.
type Value struct {
	Kind Kind

	// Str backs Binary, Bits (space-joined names), Enum, InstanceIdentifier,
	// String, and the module-qualified form of Identityref.
	Str string

	Bool bool

	// Int/Uint back the signed/unsigned integer kinds.
	Int  int64
	Uint uint64

	// Decimal64 fields: Digits is the unscaled integer value, FractionDigits
	// comes from the schema and must be supplied on both encode and decode.
	Digits         int64
	FractionDigits uint8

	// IdentityModule is set when Identityref names an identity defined in a
	// module other than the leaf's own module (spec.md §4.3: "prefixed as
	// module:name").
	IdentityModule string
	IdentityName   string

	// Default marks this value as having come from a schema default
	// rather than explicit configuration (spec.md §4.3's default-flag
	// propagation source).
	Default bool
}

// ContainerMarker distinguishes container/list instance markers from
// scalar leaves; these are the non-scalar variants of the "tagged value"
// sum described in spec.md §3.
type ContainerMarker struct {
	Presence bool
	Default  bool
}

// ListEntryMarker marks a single list entry instance.
type ListEntryMarker struct {
	Default bool
}

// FromLeafString builds a Value from a leaf's canonical string
// representation and its declared base type, per spec.md §4.3's
// leaf→tagged-value rules.
func FromLeafString(baseType, s string, fractionDigits uint8) (Value, error) {
	switch baseType {
	case "binary":
		return Value{Kind: KindBinary, Str: s}, nil
	case "bits":
		return Value{Kind: KindBits, Str: normalizeBits(s)}, nil
	case "boolean":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid boolean %q: %w", s, err)
		}
		return Value{Kind: KindBoolean, Bool: b}, nil
	case "decimal64":
		digits, err := decimal64Encode(s, fractionDigits)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDecimal64, Digits: digits, FractionDigits: fractionDigits}, nil
	case "empty":
		return Value{Kind: KindEmpty}, nil
	case "enum":
		return Value{Kind: KindEnum, Str: s}, nil
	case "identityref":
		mod, name := splitQualified(s)
		return Value{Kind: KindIdentityref, IdentityModule: mod, IdentityName: name}, nil
	case "instance-identifier":
		return Value{Kind: KindInstanceIdentifier, Str: s}, nil
	case "string", "leafref", "union":
		// leafref/union canonicalize to their underlying string form
		// (spec.md §4.3): the schema engine resolves the concrete type,
		// this layer only needs the canonical text.
		return Value{Kind: KindString, Str: s}, nil
	case "int8", "int16", "int32", "int64":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid %s %q: %w", baseType, s, err)
		}
		return Value{Kind: intKind(baseType), Int: n}, nil
	case "uint8", "uint16", "uint32", "uint64":
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid %s %q: %w", baseType, s, err)
		}
		return Value{Kind: uintKind(baseType), Uint: n}, nil
	default:
		return Value{}, fmt.Errorf("value: unsupported base type %q", baseType)
	}
}

// ToCanonicalString renders v back to its canonical leaf string, the
// inverse of FromLeafString (spec.md invariant 4: round-trip fidelity).
func ToCanonicalString(v Value) (string, error) {
	switch v.Kind {
	case KindBinary, KindBits, KindEnum, KindInstanceIdentifier, KindString:
		return v.Str, nil
	case KindBoolean:
		return strconv.FormatBool(v.Bool), nil
	case KindDecimal64:
		return decimal64Decode(v.Digits, v.FractionDigits), nil
	case KindEmpty:
		return "", nil
	case KindIdentityref:
		if v.IdentityModule != "" {
			return v.IdentityModule + ":" + v.IdentityName, nil
		}
		return v.IdentityName, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(v.Int, 10), nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return strconv.FormatUint(v.Uint, 10), nil
	default:
		return "", fmt.Errorf("value: unsupported kind %v", v.Kind)
	}
}

func intKind(baseType string) Kind {
	switch baseType {
	case "int8":
		return KindInt8
	case "int16":
		return KindInt16
	case "int32":
		return KindInt32
	default:
		return KindInt64
	}
}

func uintKind(baseType string) Kind {
	switch baseType {
	case "uint8":
		return KindUint8
	case "uint16":
		return KindUint16
	case "uint32":
		return KindUint32
	default:
		return KindUint64
	}
}

// normalizeBits re-joins a space-separated bit name list with single
// spaces and trims ends, per spec.md §4.3 ("space-separated list of set
// bit names").
func normalizeBits(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitQualified splits a possibly module-qualified identityref value
// ("module:name" or bare "name") per spec.md §4.3.
func splitQualified(s string) (module, name string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// decimal64Encode/Decode implement RFC 7950 §9.3's fixed-point encoding:
// the wire value is the decimal shifted left by fraction-digits places.
func decimal64Encode(s string, fractionDigits uint8) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if len(fracPart) > int(fractionDigits) {
		return 0, fmt.Errorf("value: decimal64 %q has more fraction digits than schema allows (%d)", s, fractionDigits)
	}
	fracPart += strings.Repeat("0", int(fractionDigits)-len(fracPart))
	digits, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value: invalid decimal64 %q: %w", s, err)
	}
	if neg {
		digits = -digits
	}
	return digits, nil
}

func decimal64Decode(digits int64, fractionDigits uint8) string {
	if fractionDigits == 0 {
		return strconv.FormatInt(digits, 10)
	}
	neg := digits < 0
	if neg {
		digits = -digits
	}
	s := strconv.FormatInt(digits, 10)
	for len(s) <= int(fractionDigits) {
		s = "0" + s
	}
	cut := len(s) - int(fractionDigits)
	out := s[:cut] + "." + s[cut:]
	if neg {
		out = "-" + out
	}
	return out
}
