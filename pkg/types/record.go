package types

// Record is one row of a logical table. Values are keyed by field id and
// hold storage-typed values: string for TEXT-backed fields, float64 for
// number, int64 for bool (0/1) and relation. Timestamps are RFC 3339 UTC
// strings and are preserved exactly across undo/redo replay.
type Record struct {
	ID        int64         `json:"id"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Values    map[int64]any `json:"values"`
}

// Value returns the stored value for a field id, or nil when the record
// has no column for it.
func (r Record) Value(fieldID int64) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[fieldID]
}

// Snapshot returns a deep copy of the record suitable for capture in an
// undo log entry. The copy shares no map state with the original.
func (r Record) Snapshot() Record {
	cp := r
	cp.Values = make(map[int64]any, len(r.Values))
	for k, v := range r.Values {
		cp.Values[k] = v
	}
	return cp
}
