package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// DefaultRelationOptionLimit bounds how many target records a relation
// picker loads. Labels beyond the cap resolve to "#<id>" instead; bounded
// cost is preferred over completeness for very large target tables.
const DefaultRelationOptionLimit = 2000

// ListRelationOptions returns selectable records of a target table as
// (id, label) pairs, newest first, capped at limit. With displayFieldID
// zero the label is "#<id>"; otherwise it is the display field's value,
// falling back to "#<id>" for empty values.
func (s *Store) ListRelationOptions(targetTableID, displayFieldID int64, limit int) ([]types.RelationOption, error) {
	_, db, err := s.handles()
	if err != nil {
		return nil, err
	}
	if err := s.EnsureTable(targetTableID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRelationOptionLimit
	}
	tname := types.DataTableName(targetTableID)

	if displayFieldID == 0 {
		rows, err := db.Query(fmt.Sprintf("SELECT id FROM %s ORDER BY id DESC LIMIT ?;", tname), limit)
		if err != nil {
			return nil, fmt.Errorf("listing options of table %d: %w", targetTableID, err)
		}
		defer rows.Close()
		var opts []types.RelationOption
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("scanning option row: %w", err)
			}
			opts = append(opts, types.RelationOption{ID: id, Label: idLabel(id)})
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("listing options of table %d: %w", targetTableID, err)
		}
		return opts, nil
	}

	col := fmt.Sprintf("f_%d", displayFieldID)
	rows, err := db.Query(
		fmt.Sprintf("SELECT id, %s AS label FROM %s ORDER BY id DESC LIMIT ?;", col, tname), limit)
	if err != nil {
		return nil, fmt.Errorf("listing options of table %d: %w", targetTableID, err)
	}
	defer rows.Close()
	var opts []types.RelationOption
	for rows.Next() {
		var (
			id    int64
			label any
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scanning option row: %w", err)
		}
		opts = append(opts, types.RelationOption{ID: id, Label: valueLabel(label, id)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing options of table %d: %w", targetTableID, err)
	}
	return opts, nil
}

// DisplayMap resolves labels for a batch of record ids in one query, used
// when rendering a page of relation cells. Ids not found in the target
// table map to "#<id>".
func (s *Store) DisplayMap(tableID, displayFieldID int64, recordIDs []int64) (map[int64]string, error) {
	_, db, err := s.handles()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(recordIDs))
	for _, id := range recordIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	out := make(map[int64]string, len(ids))
	if displayFieldID == 0 {
		for _, id := range ids {
			out[id] = idLabel(id)
		}
		return out, nil
	}

	if err := s.EnsureTable(tableID); err != nil {
		return nil, err
	}
	col := fmt.Sprintf("f_%d", displayFieldID)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(fmt.Sprintf(
		"SELECT id, %s AS label FROM %s WHERE id IN (%s);",
		col, types.DataTableName(tableID), placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("resolving labels in table %d: %w", tableID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			label any
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scanning label row: %w", err)
		}
		out[id] = valueLabel(label, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolving labels in table %d: %w", tableID, err)
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = idLabel(id)
		}
	}
	return out, nil
}

// idLabel is the display-agnostic fallback label for a record id.
func idLabel(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}

// valueLabel renders a display-field value as a label, falling back to
// idLabel for nil or empty values.
func valueLabel(v any, id int64) string {
	switch val := v.(type) {
	case nil:
		return idLabel(id)
	case string:
		if val == "" {
			return idLabel(id)
		}
		return val
	case []byte:
		if len(val) == 0 {
			return idLabel(id)
		}
		return string(val)
	case int64:
		if val == 0 {
			return idLabel(id)
		}
		return strconv.FormatInt(val, 10)
	case float64:
		if val == 0 {
			return idLabel(id)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
