package edit

import "strings"

// MultiError aggregates the per-item failures continue-on-error
// accumulates (spec.md §4.4: "failures accumulate in the reply").
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is/As.
func (m *MultiError) Unwrap() []error { return m.Errors }
