package session

import (
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// loadViews ensures the table has at least one saved view, then applies
// the remembered one, falling back to the first in display order.
func (s *Session) loadViews() error {
	views, err := s.store.ListViews(s.table.ID)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		if _, err := s.store.CreateView(s.table.ID, DefaultViewName, s.CurrentViewState()); err != nil {
			return err
		}
		views, err = s.store.ListViews(s.table.ID)
		if err != nil {
			return err
		}
	}

	prefs, err := s.store.GetTablePrefs(s.table.ID)
	if err != nil {
		return err
	}
	target := views[0]
	for _, v := range views {
		if v.ID == prefs.LastViewID {
			target = v
			break
		}
	}
	s.viewID = target.ID
	return s.applyViewState(target.State)
}

// Views lists the table's saved views.
func (s *Session) Views() ([]types.View, error) {
	return s.store.ListViews(s.table.ID)
}

// CurrentViewID returns the id of the saved view the session is on.
func (s *Session) CurrentViewID() int64 { return s.viewID }

// CurrentViewState snapshots the working state for saving into a view,
// folding in the hidden-field prefs so the view restores them.
func (s *Session) CurrentViewState() types.ViewState {
	state := s.state
	state.HiddenFieldIDs = s.hiddenIDs()
	return state
}

// applyViewState replaces the working state with a saved one. The view's
// hidden-field list is written through to the table prefs so the field
// panel and the view agree.
func (s *Session) applyViewState(state types.ViewState) error {
	s.state = state
	prefs, err := s.store.GetTablePrefs(s.table.ID)
	if err != nil {
		return err
	}
	prefs.HiddenFieldIDs = state.HiddenFieldIDs
	if err := s.store.SaveTablePrefs(s.table.ID, prefs); err != nil {
		return err
	}
	if err := s.Reload(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// SelectView switches to another saved view of the same table, remembers
// it as the table's last view, and applies its state.
func (s *Session) SelectView(viewID int64) error {
	v, err := s.store.GetView(viewID)
	if err != nil {
		return err
	}
	if v.TableID != s.table.ID {
		return types.ErrNotFound
	}
	prefs, err := s.store.GetTablePrefs(s.table.ID)
	if err != nil {
		return err
	}
	prefs.LastViewID = v.ID
	if err := s.store.SaveTablePrefs(s.table.ID, prefs); err != nil {
		return err
	}
	s.viewID = v.ID
	return s.applyViewState(v.State)
}

// SaveView writes the working state into the current saved view.
func (s *Session) SaveView() error {
	state := s.CurrentViewState()
	if err := s.store.UpdateView(s.viewID, nil, &state); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// SaveViewAs creates a new view from the working state and switches to it.
func (s *Session) SaveViewAs(name string) (*types.View, error) {
	v, err := s.store.CreateView(s.table.ID, name, s.CurrentViewState())
	if err != nil {
		return nil, err
	}
	if err := s.SelectView(v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// RenameView renames the current saved view.
func (s *Session) RenameView(name string) error {
	return s.store.UpdateView(s.viewID, &name, nil)
}

// DeleteView removes the current saved view and falls back to the first
// remaining one. The store rejects deleting a table's last view.
func (s *Session) DeleteView() error {
	if err := s.store.DeleteView(s.viewID); err != nil {
		return err
	}
	views, err := s.store.ListViews(s.table.ID)
	if err != nil {
		return err
	}
	return s.SelectView(views[0].ID)
}
