package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// ListViews returns a table's saved views ordered by position, id.
func (s *Store) ListViews(tableID int64) ([]types.View, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var views []types.View
	if err := gdb.Where("table_id = ?", tableID).
		Order("COALESCE(position, id) ASC, id ASC").
		Find(&views).Error; err != nil {
		return nil, fmt.Errorf("listing views of table %d: %w", tableID, err)
	}
	return views, nil
}

// GetView returns one view by id.
func (s *Store) GetView(id int64) (*types.View, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var v types.View
	if err := gdb.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("view %d: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading view %d: %w", id, err)
	}
	return &v, nil
}

// CreateView saves a new named view of a table. Names are unique per
// table. The view's position is backfilled from its id on the next open,
// which places it after every existing view.
func (s *Store) CreateView(tableID int64, name string, state types.ViewState) (*types.View, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	if _, err := s.GetTable(tableID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("view name: %w", types.ErrInvalidName)
	}
	if taken, err := viewNameTaken(gdb, tableID, name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("view %q: %w", name, types.ErrDuplicateView)
	}
	v := types.View{TableID: tableID, Name: name, State: state}
	if err := gdb.Create(&v).Error; err != nil {
		return nil, fmt.Errorf("creating view %q: %w", name, err)
	}
	return &v, nil
}

// UpdateView applies a partial update: a non-nil name renames, a non-nil
// state replaces the stored arrangement.
func (s *Store) UpdateView(id int64, name *string, state *types.ViewState) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	v, err := s.GetView(id)
	if err != nil {
		return err
	}
	if name == nil && state == nil {
		return nil
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return fmt.Errorf("view name: %w", types.ErrInvalidName)
		}
		if taken, err := viewNameTaken(gdb, v.TableID, n, id); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("view %q: %w", n, types.ErrDuplicateView)
		}
		v.Name = n
	}
	if state != nil {
		v.State = *state
	}
	if err := gdb.Save(v).Error; err != nil {
		return fmt.Errorf("updating view %d: %w", id, err)
	}
	return nil
}

// DeleteView removes a saved view. The last view of a table cannot be
// deleted; every table keeps at least one arrangement to return to.
func (s *Store) DeleteView(id int64) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	v, err := s.GetView(id)
	if err != nil {
		return err
	}
	var count int64
	if err := gdb.Model(&types.View{}).Where("table_id = ?", v.TableID).Count(&count).Error; err != nil {
		return fmt.Errorf("counting views of table %d: %w", v.TableID, err)
	}
	if count <= 1 {
		return fmt.Errorf("view %d: %w", id, types.ErrLastView)
	}
	if err := gdb.Delete(&types.View{}, id).Error; err != nil {
		return fmt.Errorf("deleting view %d: %w", id, err)
	}
	return nil
}

func viewNameTaken(gdb *gorm.DB, tableID int64, name string, excludeID int64) (bool, error) {
	var count int64
	q := gdb.Model(&types.View{}).Where("table_id = ? AND name = ?", tableID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking view name %q: %w", name, err)
	}
	return count > 0, nil
}
