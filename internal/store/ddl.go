package store

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// columnDDL maps a field type to the column definition of its physical
// column. Every type carries NOT NULL with a zero default so existing rows
// are valid the moment the column is added.
func columnDDL(ftype string) (string, error) {
	switch ftype {
	case types.FieldTypeText, types.FieldTypeDate, types.FieldTypeFile,
		types.FieldTypeSelect, types.FieldTypePath, types.FieldTypeImage:
		return "TEXT NOT NULL DEFAULT ''", nil
	case types.FieldTypeNumber:
		return "REAL NOT NULL DEFAULT 0", nil
	case types.FieldTypeBool, types.FieldTypeRelation:
		return "INTEGER NOT NULL DEFAULT 0", nil
	default:
		return "", fmt.Errorf("field type %q: %w", ftype, types.ErrInvalidFieldType)
	}
}

// EnsureTable provisions the physical record store for a logical table:
// the system columns plus an index on updated_at. Idempotent, and called
// lazily before every record operation so a catalog row whose physical
// table is missing (a partial restore, say) heals on first touch.
func (s *Store) EnsureTable(tableID int64) error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	tname := types.DataTableName(tableID)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`, tname)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("ensuring data table %d: %w", tableID, err)
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_updated ON %s(updated_at);", tname, tname)
	if _, err := db.Exec(idx); err != nil {
		return fmt.Errorf("indexing data table %d: %w", tableID, err)
	}
	return nil
}

// AddColumn adds the physical column for a field if it is not already
// present. Idempotent: the catalog row and the physical column are two
// separate commits, and retrying after a crash between them must succeed.
func (s *Store) AddColumn(tableID, fieldID int64, ftype string) error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	ddl, err := columnDDL(ftype)
	if err != nil {
		return err
	}
	if err := s.EnsureTable(tableID); err != nil {
		return err
	}
	tname := types.DataTableName(tableID)
	col := fmt.Sprintf("f_%d", fieldID)
	cols, err := s.tableColumns(tname)
	if err != nil {
		return err
	}
	if cols[col] {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", tname, col, ddl)
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("adding column %s to table %d: %w", col, tableID, err)
	}
	return nil
}

// tableColumns returns the set of column names of a physical table.
func (s *Store) tableColumns(tname string) (map[string]bool, error) {
	_, db, err := s.handles()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s);", tname))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", tname, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info of %s: %w", tname, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", tname, err)
	}
	return cols, nil
}
