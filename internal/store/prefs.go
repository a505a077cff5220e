package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// GetTablePrefs returns a table's stored preferences, or the zero prefs
// when none have been saved yet.
func (s *Store) GetTablePrefs(tableID int64) (types.Prefs, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return types.Prefs{}, err
	}
	var tp types.TablePrefs
	if err := gdb.First(&tp, "table_id = ?", tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Prefs{}, nil
		}
		return types.Prefs{}, fmt.Errorf("loading prefs of table %d: %w", tableID, err)
	}
	return tp.Prefs, nil
}

// SaveTablePrefs upserts a table's preferences blob.
func (s *Store) SaveTablePrefs(tableID int64, prefs types.Prefs) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	tp := types.TablePrefs{TableID: tableID, Prefs: prefs}
	if err := gdb.Save(&tp).Error; err != nil {
		return fmt.Errorf("saving prefs of table %d: %w", tableID, err)
	}
	return nil
}
