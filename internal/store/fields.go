package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// ListFields returns a table's fields ordered by position, id. With
// activeOnly set, soft-deleted fields are excluded; their physical columns
// and values remain in the data table regardless.
func (s *Store) ListFields(tableID int64, activeOnly bool) ([]types.Field, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	q := gdb.Where("table_id = ?", tableID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var fields []types.Field
	if err := q.Order("COALESCE(position, id) ASC, id ASC").Find(&fields).Error; err != nil {
		return nil, fmt.Errorf("listing fields of table %d: %w", tableID, err)
	}
	return fields, nil
}

// GetField returns one field by id.
func (s *Store) GetField(id int64) (*types.Field, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var f types.Field
	if err := gdb.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("field %d: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading field %d: %w", id, err)
	}
	return &f, nil
}

// AddField appends a field to a table: validates the definition, assigns
// the next position, creates the catalog row, then adds the backing
// physical column. The catalog row and the column are separate commits;
// AddColumn's idempotence lets a retry heal a crash between them.
func (s *Store) AddField(tableID int64, name, ftype string, required bool, opts types.FieldOptions) (*types.Field, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	if _, err := s.GetTable(tableID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("field name: %w", types.ErrInvalidName)
	}
	if !types.IsValidFieldType(ftype) {
		return nil, fmt.Errorf("field type %q: %w", ftype, types.ErrInvalidFieldType)
	}
	switch ftype {
	case types.FieldTypeSelect:
		opts = types.FieldOptions{Choices: types.NormalizeChoices(opts.Choices)}
	case types.FieldTypeRelation:
		rel := opts.Relation()
		if rel.TargetTableID <= 0 {
			return nil, fmt.Errorf("relation target table id %d: %w", rel.TargetTableID, types.ErrInvalidValue)
		}
		if _, err := s.GetTable(rel.TargetTableID); err != nil {
			return nil, fmt.Errorf("relation target table %d: %w", rel.TargetTableID, types.ErrInvalidValue)
		}
		opts = types.FieldOptions{TargetTableID: rel.TargetTableID, DisplayFieldID: rel.DisplayFieldID}
	default:
		opts = types.FieldOptions{}
	}

	var next int64
	row := gdb.Raw(
		"SELECT COALESCE(MAX(COALESCE(position, id)), 0) + 1 AS next_pos FROM meta_fields WHERE table_id = ?;",
		tableID,
	).Scan(&next)
	if row.Error != nil {
		return nil, fmt.Errorf("computing field position: %w", row.Error)
	}

	f := types.Field{
		TableID:  tableID,
		Name:     name,
		FType:    ftype,
		Required: required,
		Active:   true,
		Position: &next,
		Options:  opts,
	}
	if err := gdb.Create(&f).Error; err != nil {
		return nil, fmt.Errorf("creating field %q: %w", name, err)
	}
	if err := s.AddColumn(tableID, f.ID, ftype); err != nil {
		return nil, err
	}
	return &f, nil
}

// RenameField renames a field. Field names are not unique, so only
// emptiness is rejected.
func (s *Store) RenameField(id int64, name string) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("field name: %w", types.ErrInvalidName)
	}
	f, err := s.GetField(id)
	if err != nil {
		return err
	}
	f.Name = name
	if err := gdb.Save(f).Error; err != nil {
		return fmt.Errorf("renaming field %d: %w", id, err)
	}
	return nil
}

// DeactivateField soft-deletes a field. The physical column keeps its data
// and the field stops appearing in active listings and queries.
func (s *Store) DeactivateField(id int64) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	f, err := s.GetField(id)
	if err != nil {
		return err
	}
	f.Active = false
	if err := gdb.Save(f).Error; err != nil {
		return fmt.Errorf("deactivating field %d: %w", id, err)
	}
	return nil
}

// SetFieldChoices replaces a select field's choice list, normalized and
// de-duplicated with order preserved.
func (s *Store) SetFieldChoices(id int64, choices []string) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	f, err := s.GetField(id)
	if err != nil {
		return err
	}
	if f.FType != types.FieldTypeSelect {
		return fmt.Errorf("field %d is %s, not select: %w", id, f.FType, types.ErrInvalidValue)
	}
	f.Options = types.FieldOptions{Choices: types.NormalizeChoices(choices)}
	if err := gdb.Save(f).Error; err != nil {
		return fmt.Errorf("updating choices of field %d: %w", id, err)
	}
	return nil
}

// ReorderFields rewrites positions as the 1-based rank of each id in the
// given order. Ids not belonging to the table are skipped, so a stale
// order list can never disturb another table's layout. The applied order
// is mirrored into the table's prefs as an advisory copy.
func (s *Store) ReorderFields(tableID int64, orderedIDs []int64) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	fields, err := s.ListFields(tableID, false)
	if err != nil {
		return err
	}
	owned := make(map[int64]bool, len(fields))
	for _, f := range fields {
		owned[f.ID] = true
	}
	ids := make([]int64, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		if owned[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := gdb.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			pos := int64(i + 1)
			if err := tx.Model(&types.Field{}).
				Where("id = ? AND table_id = ?", id, tableID).
				Update("position", pos).Error; err != nil {
				return fmt.Errorf("positioning field %d: %w", id, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	prefs, err := s.GetTablePrefs(tableID)
	if err != nil {
		return err
	}
	prefs.FieldOrder = ids
	return s.SaveTablePrefs(tableID, prefs)
}
