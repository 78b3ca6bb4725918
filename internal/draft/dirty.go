package draft

// Tracker is the read side of a draft that decides whether saving makes sense.
type Tracker interface {
	IsDirty() bool
}

// IsDirty reports whether t has unsaved changes. A nil tracker is clean.
func IsDirty(t Tracker) bool {
	if t == nil {
		return false
	}
	return t.IsDirty()
}
