package edit

// DefaultOperation is the edit-config default-operation control (spec.md
// §4.4).
type DefaultOperation int

const (
	DefaultOperationMerge DefaultOperation = iota
	DefaultOperationReplace
	DefaultOperationNone
)

// ParseDefaultOperation maps the wire string to a DefaultOperation.
func ParseDefaultOperation(s string) (DefaultOperation, bool) {
	switch s {
	case "", "merge":
		return DefaultOperationMerge, true
	case "replace":
		return DefaultOperationReplace, true
	case "none":
		return DefaultOperationNone, true
	default:
		return DefaultOperationMerge, false
	}
}

// Operation is a per-node effective edit operation, resolved from the
// nearest ancestor operation attribute or the default-operation control.
type Operation int

const (
	OpMerge Operation = iota
	OpReplace
	OpCreate
	OpDelete
	OpRemove
	OpNone
)

// ParseOperation maps an edit-config operation attribute value.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case "merge":
		return OpMerge, true
	case "replace":
		return OpReplace, true
	case "create":
		return OpCreate, true
	case "delete":
		return OpDelete, true
	case "remove":
		return OpRemove, true
	case "none":
		return OpNone, true
	default:
		return OpMerge, false
	}
}

func (d DefaultOperation) asOperation() Operation {
	switch d {
	case DefaultOperationReplace:
		return OpReplace
	case DefaultOperationNone:
		return OpNone
	default:
		return OpMerge
	}
}

// TestOption is the edit-config test-option control (spec.md §4.4).
type TestOption int

const (
	TestThenSet TestOption = iota
	TestOnly
	SetOnly
)

// ParseTestOption maps the wire string to a TestOption.
func ParseTestOption(s string) (TestOption, bool) {
	switch s {
	case "", "test-then-set":
		return TestThenSet, true
	case "test-only":
		return TestOnly, true
	case "set":
		return SetOnly, true
	default:
		return TestThenSet, false
	}
}

// ErrorOption is the edit-config error-option control (spec.md §4.4).
type ErrorOption int

const (
	StopOnError ErrorOption = iota
	ContinueOnError
	RollbackOnError
)

// ParseErrorOption maps the wire string to an ErrorOption.
func ParseErrorOption(s string) (ErrorOption, bool) {
	switch s {
	case "", "stop-on-error":
		return StopOnError, true
	case "continue-on-error":
		return ContinueOnError, true
	case "rollback-on-error":
		return RollbackOnError, true
	default:
		return StopOnError, false
	}
}

// Controls bundles the three edit-config controls (spec.md §4.4).
type Controls struct {
	DefaultOperation DefaultOperation
	TestOption       TestOption
	ErrorOption      ErrorOption
}
