package session

import "context"

// Commit copies candidate into running via the invoking session's own
// back-end handle, then clears every live session's candidate-changed
// flag (spec.md §4.5: "commit ... clear all candidate-changed flags").
func Commit(ctx context.Context, invoking *Session, table *Table) error {
	if err := invoking.Backend().Commit(ctx); err != nil {
		return err
	}
	for _, s := range table.List() {
		s.ClearCandidateDirty()
	}
	return nil
}

// DiscardChanges drops sess's own pending candidate edits and clears its
// flag (spec.md §4.5: "discard-changes: drop pending candidate edits;
// clear flag for the invoking session").
func DiscardChanges(ctx context.Context, sess *Session) error {
	if err := sess.Backend().DiscardChanges(ctx); err != nil {
		return err
	}
	sess.ClearCandidateDirty()
	return nil
}
