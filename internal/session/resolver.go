package session

import (
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// Resolver turns relation references into display labels. Option lists are
// loaded once per target table and kept for the resolver's lifetime; edits
// to a target table show up in the next session, not this one.
type Resolver struct {
	store *store.Store
	limit int
	cache map[int64][]types.RelationOption
}

func NewResolver(s *store.Store) *Resolver {
	return &Resolver{
		store: s,
		limit: store.DefaultRelationOptionLimit,
		cache: make(map[int64][]types.RelationOption),
	}
}

// Options returns the cached option list for a relation field's target
// table, loading it on first use. Failed loads are not cached.
func (r *Resolver) Options(targetTableID, displayFieldID int64) ([]types.RelationOption, error) {
	if opts, ok := r.cache[targetTableID]; ok {
		return opts, nil
	}
	opts, err := r.store.ListRelationOptions(targetTableID, displayFieldID, r.limit)
	if err != nil {
		return nil, err
	}
	r.cache[targetTableID] = opts
	return opts, nil
}

// Label resolves one stored relation value for display. Unset references
// render empty; references whose field lacks a target table render as the
// bare id; ids missing from the cached options render as "#<id>".
func (r *Resolver) Label(f types.Field, raw any) string {
	id, ok := relationID(raw)
	if !ok {
		return fmt.Sprintf("%v", raw)
	}
	if id == 0 {
		return ""
	}
	rel := f.Options.Relation()
	if rel.TargetTableID == 0 {
		return strconv.FormatInt(id, 10)
	}
	opts, err := r.Options(rel.TargetTableID, rel.DisplayFieldID)
	if err != nil {
		return "#" + strconv.FormatInt(id, 10)
	}
	for _, o := range opts {
		if o.ID == id {
			return o.Label
		}
	}
	return "#" + strconv.FormatInt(id, 10)
}

// relationID coerces a stored relation value to a record id. Nil and the
// empty string count as unset.
func relationID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		if v == "" {
			return 0, true
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
