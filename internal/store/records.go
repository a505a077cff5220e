package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// InsertRecord inserts a row with the given field values and returns the
// assigned id. Both timestamps are set to now; columns not named in values
// keep their type defaults.
func (s *Store) InsertRecord(tableID int64, values map[int64]any) (int64, error) {
	_, db, err := s.handles()
	if err != nil {
		return 0, err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return 0, err
	}
	now := nowStamp()
	cols := []string{"created_at", "updated_at"}
	args := []any{now, now}
	for fid, v := range values {
		cols = append(cols, fmt.Sprintf("f_%d", fid))
		args = append(args, v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s);",
		types.DataTableName(tableID), strings.Join(cols, ", "), placeholders)
	res, err := db.Exec(stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting record into table %d: %w", tableID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new record id: %w", err)
	}
	return id, nil
}

// InsertRecordWithID inserts a row under a forced id, replacing any
// existing row with that id. Timestamps default to now when empty. This
// is the undo/redo replay path: a deleted row comes back under its
// original identity and audit fields.
func (s *Store) InsertRecordWithID(tableID, recordID int64, values map[int64]any, createdAt, updatedAt string) error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return err
	}
	if createdAt == "" {
		createdAt = nowStamp()
	}
	if updatedAt == "" {
		updatedAt = nowStamp()
	}
	cols := []string{"id", "created_at", "updated_at"}
	args := []any{recordID, createdAt, updatedAt}
	for fid, v := range values {
		cols = append(cols, fmt.Sprintf("f_%d", fid))
		args = append(args, v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s(%s) VALUES(%s);",
		types.DataTableName(tableID), strings.Join(cols, ", "), placeholders)
	if _, err := db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("reinserting record %d into table %d: %w", recordID, tableID, err)
	}
	return nil
}

// UpdateRecord applies a partial column update and refreshes updated_at.
// An empty value map is a no-op that touches nothing, not even the
// timestamp. Updating an absent id affects zero rows and is not an error.
func (s *Store) UpdateRecord(tableID, recordID int64, values map[int64]any) error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.EnsureTable(tableID); err != nil {
		return err
	}
	sets := []string{"updated_at = ?"}
	args := []any{nowStamp()}
	for fid, v := range values {
		sets = append(sets, fmt.Sprintf("f_%d = ?", fid))
		args = append(args, v)
	}
	args = append(args, recordID)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?;",
		types.DataTableName(tableID), strings.Join(sets, ", "))
	if _, err := db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("updating record %d in table %d: %w", recordID, tableID, err)
	}
	return nil
}

// DeleteRecord removes a row. Deleting an absent id is not an error.
func (s *Store) DeleteRecord(tableID, recordID int64) error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?;", types.DataTableName(tableID))
	if _, err := db.Exec(stmt, recordID); err != nil {
		return fmt.Errorf("deleting record %d from table %d: %w", recordID, tableID, err)
	}
	return nil
}

// GetRecord returns one row with every physical column, including columns
// of deactivated fields.
func (s *Store) GetRecord(tableID, recordID int64) (*types.Record, error) {
	_, db, err := s.handles()
	if err != nil {
		return nil, err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf("SELECT * FROM %s WHERE id = ?;", types.DataTableName(tableID))
	rows, err := db.Query(stmt, recordID)
	if err != nil {
		return nil, fmt.Errorf("loading record %d from table %d: %w", recordID, tableID, err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("record %d in table %d: %w", recordID, tableID, types.ErrNotFound)
	}
	return &records[0], nil
}

// scanRecords hydrates rows from a data table into Records. The column set
// varies per table, so columns are mapped by name: system columns fill the
// envelope and f_<id> columns land in Values keyed by field id.
func scanRecords(rows *sql.Rows) ([]types.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}
	var records []types.Record
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		rec := types.Record{Values: make(map[int64]any, len(cols))}
		for i, col := range cols {
			v := normalizeScanned(raw[i])
			switch col {
			case "id":
				if id, ok := v.(int64); ok {
					rec.ID = id
				}
			case "created_at":
				if ts, ok := v.(string); ok {
					rec.CreatedAt = ts
				}
			case "updated_at":
				if ts, ok := v.(string); ok {
					rec.UpdatedAt = ts
				}
			default:
				if fid, ok := fieldIDFromColumn(col); ok {
					rec.Values[fid] = v
				}
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading record rows: %w", err)
	}
	return records, nil
}

// normalizeScanned maps driver output to the storage types callers see:
// []byte becomes string, everything else passes through.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// fieldIDFromColumn extracts the field id from an f_<id> column name.
func fieldIDFromColumn(col string) (int64, bool) {
	rest, ok := strings.CutPrefix(col, "f_")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
