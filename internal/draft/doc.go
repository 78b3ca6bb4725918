// Package draft holds editable working copies of records.
//
// # Overview
//
// A Draft keeps two values: the value being edited and the baseline, which is
// the last value known to be persisted. The baseline moves only on commit.
// IsDirty reports a deep structural difference between the two and is what
// gates a save affordance.
//
// # Versions
//
// Every edit bumps a monotonically increasing version. A submission captures a
// Snapshot; when the collaborator acknowledges it, CommitSnapshot records the
// snapshot as the baseline and reports whether it was still current. A stale
// snapshot never overwrites a newer edit.
//
// # Copies
//
// Values passed in and out are deep copies (a reflection walk by default, see
// WithClone), so callers cannot mutate draft state behind its back. Dynamic
// types inside interfaces survive the copy. Unexported struct fields are
// copied shallowly but still take part in IsDirty and Diff.
//
// Drafts are safe for concurrent use.
package draft
