package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

// ProjectUpdate describes a partial project update. Nil fields are left
// untouched. SetParent must be true for ParentID to be applied; a nil
// ParentID with SetParent set detaches the project from its parent.
type ProjectUpdate struct {
	Name      *string
	Color     *string
	SetParent bool
	ParentID  *int64
}

// ListProjects returns every project ordered by name, case-insensitively.
func (s *Store) ListProjects() ([]types.Project, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var projects []types.Project
	if err := gdb.Order("name COLLATE NOCASE").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project by id.
func (s *Store) GetProject(id int64) (*types.Project, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var p types.Project
	if err := gdb.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading project %d: %w", id, err)
	}
	return &p, nil
}

// CreateProject creates a project. Name must be non-empty and unique;
// color falls back to DefaultProjectColor; parentID, when non-nil, must
// name an existing project.
func (s *Store) CreateProject(name, color string, parentID *int64) (*types.Project, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name: %w", types.ErrInvalidName)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = types.DefaultProjectColor
	}
	if taken, err := nameTaken(gdb, &types.Project{}, name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("project %q: %w", name, types.ErrDuplicateName)
	}
	if parentID != nil {
		if _, err := s.GetProject(*parentID); err != nil {
			return nil, err
		}
	}
	p := types.Project{Name: name, Color: color, ParentID: parentID}
	if err := gdb.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("creating project %q: %w", name, err)
	}
	return &p, nil
}

// UpdateProject applies a partial update. Renames keep the unique-name
// rule; re-parenting refuses any assignment that would close a cycle in
// the project tree.
func (s *Store) UpdateProject(id int64, upd ProjectUpdate) (*types.Project, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	p, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("project name: %w", types.ErrInvalidName)
		}
		if taken, err := nameTaken(gdb, &types.Project{}, name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, fmt.Errorf("project %q: %w", name, types.ErrDuplicateName)
		}
		p.Name = name
	}
	if upd.Color != nil {
		color := strings.TrimSpace(*upd.Color)
		if color == "" {
			color = types.DefaultProjectColor
		}
		p.Color = color
	}
	if upd.SetParent {
		if upd.ParentID != nil {
			if err := s.checkProjectCycle(id, *upd.ParentID); err != nil {
				return nil, err
			}
		}
		p.ParentID = upd.ParentID
	}
	if err := gdb.Save(p).Error; err != nil {
		return nil, fmt.Errorf("updating project %d: %w", id, err)
	}
	return p, nil
}

// checkProjectCycle rejects parent assignments that would make the project
// an ancestor of itself, walking the chain from the proposed parent up.
func (s *Store) checkProjectCycle(id, parentID int64) error {
	if parentID == id {
		return fmt.Errorf("project %d: %w", id, types.ErrProjectCycle)
	}
	current := parentID
	for current != 0 {
		p, err := s.GetProject(current)
		if err != nil {
			return err
		}
		if p.ParentID == nil {
			return nil
		}
		if *p.ParentID == id {
			return fmt.Errorf("project %d: %w", id, types.ErrProjectCycle)
		}
		current = *p.ParentID
	}
	return nil
}

// DeleteProject removes the project and its whole subtree of subprojects.
// Tables owned by any deleted project are detached, never deleted.
func (s *Store) DeleteProject(id int64) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	if _, err := s.GetProject(id); err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		return deleteProjectTree(tx, id)
	})
}

func deleteProjectTree(tx *gorm.DB, id int64) error {
	var children []types.Project
	if err := tx.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return fmt.Errorf("listing subprojects of %d: %w", id, err)
	}
	for _, c := range children {
		if err := deleteProjectTree(tx, c.ID); err != nil {
			return err
		}
	}
	if err := tx.Model(&types.Table{}).Where("project_id = ?", id).
		Update("project_id", nil).Error; err != nil {
		return fmt.Errorf("detaching tables of project %d: %w", id, err)
	}
	if err := tx.Delete(&types.Project{}, id).Error; err != nil {
		return fmt.Errorf("deleting project %d: %w", id, err)
	}
	return nil
}

// ListTables returns every logical table ordered by name, case-insensitively.
func (s *Store) ListTables() ([]types.Table, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var tables []types.Table
	if err := gdb.Order("name COLLATE NOCASE").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

// GetTable returns one logical table by id.
func (s *Store) GetTable(id int64) (*types.Table, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	var t types.Table
	if err := gdb.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("table %d: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading table %d: %w", id, err)
	}
	return &t, nil
}

// CreateTable creates a logical table and provisions its physical record
// store. Name must be non-empty and unique across the workspace.
func (s *Store) CreateTable(name string, projectID *int64) (*types.Table, error) {
	gdb, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("table name: %w", types.ErrInvalidName)
	}
	if taken, err := nameTaken(gdb, &types.Table{}, name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("table %q: %w", name, types.ErrDuplicateName)
	}
	if projectID != nil {
		if _, err := s.GetProject(*projectID); err != nil {
			return nil, err
		}
	}
	t := types.Table{Name: name, ProjectID: projectID}
	if err := gdb.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("creating table %q: %w", name, err)
	}
	if err := s.EnsureTable(t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// RenameTable renames a logical table, keeping the unique-name rule.
func (s *Store) RenameTable(id int64, name string) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("table name: %w", types.ErrInvalidName)
	}
	t, err := s.GetTable(id)
	if err != nil {
		return err
	}
	if taken, err := nameTaken(gdb, &types.Table{}, name, id); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("table %q: %w", name, types.ErrDuplicateName)
	}
	t.Name = name
	if err := gdb.Save(t).Error; err != nil {
		return fmt.Errorf("renaming table %d: %w", id, err)
	}
	return nil
}

// SetTableProject moves a table into a project, or detaches it when
// projectID is nil.
func (s *Store) SetTableProject(id int64, projectID *int64) error {
	gdb, _, err := s.handles()
	if err != nil {
		return err
	}
	t, err := s.GetTable(id)
	if err != nil {
		return err
	}
	if projectID != nil {
		if _, err := s.GetProject(*projectID); err != nil {
			return err
		}
	}
	t.ProjectID = projectID
	if err := gdb.Save(t).Error; err != nil {
		return fmt.Errorf("moving table %d: %w", id, err)
	}
	return nil
}

// DeleteTable removes the catalog entry with its fields, views, and prefs,
// then drops the physical record store. The physical drop runs after the
// catalog commit; a crash in between leaves an orphan data table that the
// next DeleteTable of the same id would also remove.
func (s *Store) DeleteTable(id int64) error {
	gdb, db, err := s.handles()
	if err != nil {
		return err
	}
	if _, err := s.GetTable(id); err != nil {
		return err
	}
	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_id = ?", id).Delete(&types.Field{}).Error; err != nil {
			return fmt.Errorf("deleting fields of table %d: %w", id, err)
		}
		if err := tx.Where("table_id = ?", id).Delete(&types.View{}).Error; err != nil {
			return fmt.Errorf("deleting views of table %d: %w", id, err)
		}
		if err := tx.Where("table_id = ?", id).Delete(&types.TablePrefs{}).Error; err != nil {
			return fmt.Errorf("deleting prefs of table %d: %w", id, err)
		}
		if err := tx.Delete(&types.Table{}, id).Error; err != nil {
			return fmt.Errorf("deleting table %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s;", types.DataTableName(id))); err != nil {
		return fmt.Errorf("dropping data table %d: %w", id, err)
	}
	return nil
}

// nameTaken reports whether another row of the model already uses the name.
// excludeID skips the row being renamed.
func nameTaken(gdb *gorm.DB, model any, name string, excludeID int64) (bool, error) {
	var count int64
	q := gdb.Model(model).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking name %q: %w", name, err)
	}
	return count > 0, nil
}
