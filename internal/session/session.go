// Package session drives one open table: a working view state over the
// store's records, per-table preferences, relation label resolution, and a
// linear undo/redo log of record mutations. One session mutates a given
// table at a time; nothing here is safe for concurrent use.
package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/trestle/internal/store"
	"github.com/mesh-intelligence/trestle/pkg/types"
)

// DefaultViewName is the view created for a table that has none yet.
const DefaultViewName = "Main"

// Session is the working context for one table. It tracks an unsaved view
// state (filters, sort, search, column presentation), the hidden-field
// preferences, the current saved view, and the undo history. Schema reads
// are cached and refreshed by Reload.
type Session struct {
	store   *store.Store
	table   types.Table
	display types.DisplayConfig
	limit   int

	history  *History
	resolver *Resolver

	fields []types.Field
	hidden map[int64]bool
	state  types.ViewState
	viewID int64
	dirty  bool
}

// Open starts a session on a table, ensuring it has at least one saved
// view and applying the last used one.
func Open(st *store.Store, tableID int64, cfg types.Config) (*Session, error) {
	tbl, err := st.GetTable(tableID)
	if err != nil {
		return nil, err
	}
	s := &Session{
		store:    st,
		table:    *tbl,
		display:  cfg.Display(),
		limit:    cfg.RecordLimit,
		history:  NewHistory(),
		resolver: NewResolver(st),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	if err := s.loadViews(); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the catalog row the session was opened on.
func (s *Session) Table() types.Table { return s.table }

// History exposes the undo log for enablement checks and labels.
func (s *Session) History() *History { return s.history }

// Dirty reports whether the working state has diverged from the saved view.
func (s *Session) Dirty() bool { return s.dirty }

// State returns a copy of the working view state.
func (s *Session) State() types.ViewState { return s.state }

// Reload refreshes the cached field list and hidden-field preferences.
func (s *Session) Reload() error {
	fields, err := s.store.ListFields(s.table.ID, true)
	if err != nil {
		return err
	}
	prefs, err := s.store.GetTablePrefs(s.table.ID)
	if err != nil {
		return err
	}
	s.fields = fields
	s.hidden = make(map[int64]bool, len(prefs.HiddenFieldIDs))
	for _, id := range prefs.HiddenFieldIDs {
		if id > 0 {
			s.hidden[id] = true
		}
	}
	return nil
}

// Fields returns the table's live fields in display order.
func (s *Session) Fields() []types.Field { return s.fields }

// VisibleFields returns the live fields minus the ones hidden by prefs.
func (s *Session) VisibleFields() []types.Field {
	out := make([]types.Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !s.hidden[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// SetFieldHidden hides or shows one field, persisting the change to the
// table's prefs immediately.
func (s *Session) SetFieldHidden(fieldID int64, hidden bool) error {
	if hidden {
		s.hidden[fieldID] = true
	} else {
		delete(s.hidden, fieldID)
	}
	prefs, err := s.store.GetTablePrefs(s.table.ID)
	if err != nil {
		return err
	}
	prefs.HiddenFieldIDs = s.hiddenIDs()
	if err := s.store.SaveTablePrefs(s.table.ID, prefs); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

func (s *Session) hiddenIDs() []int64 {
	ids := make([]int64, 0, len(s.hidden))
	for id := range s.hidden {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetSearch replaces the free-text term of the working state.
func (s *Session) SetSearch(term string) {
	s.state.Search = strings.TrimSpace(term)
	s.dirty = true
}

// SetSort replaces the working sort. Field id zero sorts by record id.
func (s *Session) SetSort(fieldID int64, dir string) {
	s.state.SortFieldID = fieldID
	s.state.SortDir = types.NormalizeSortDir(dir)
	s.dirty = true
}

// SetFilter replaces one field's filter in the working state.
func (s *Session) SetFilter(fieldID int64, f types.Filter) {
	if s.state.Filters == nil {
		s.state.Filters = make(map[int64]types.Filter)
	}
	s.state.Filters[fieldID] = f
	s.dirty = true
}

// ClearFilter drops one field's filter from the working state.
func (s *Session) ClearFilter(fieldID int64) {
	delete(s.state.Filters, fieldID)
	s.dirty = true
}

// SetFieldsPanel records whether the fields panel is shown.
func (s *Session) SetFieldsPanel(visible bool) {
	s.state.FieldsPanel = visible
	s.dirty = true
}

// SetColWidth records a column width for the view snapshot. Field id zero
// is the record id column.
func (s *Session) SetColWidth(fieldID int64, width int) {
	if s.state.ColWidths == nil {
		s.state.ColWidths = make(map[int64]int)
	}
	s.state.ColWidths[fieldID] = width
	s.dirty = true
}

// Records runs the working state's query against the store.
func (s *Session) Records() ([]types.Record, error) {
	return s.store.ListRecords(s.table.ID, types.RecordQuery{
		Search:      s.state.Search,
		Filters:     s.state.Filters,
		SortFieldID: s.state.SortFieldID,
		SortDir:     s.state.SortDir,
		Limit:       s.limit,
	})
}

// AddRecord inserts a record and logs its inverse in the history. Values
// are normalized per field type; ids not naming a live field are dropped.
func (s *Session) AddRecord(values map[int64]any) (int64, error) {
	vals, err := s.normalizeValues(values)
	if err != nil {
		return 0, err
	}
	id, err := s.store.InsertRecord(s.table.ID, vals)
	if err != nil {
		return 0, err
	}
	rec, err := s.store.GetRecord(s.table.ID, id)
	if err != nil {
		return 0, err
	}
	snap := rec.Snapshot()
	s.history.Record(Command{
		Kind:     CommandAdd,
		Label:    "Add record",
		TableID:  s.table.ID,
		RecordID: id,
		After:    &snap,
	})
	return id, nil
}

// UpdateRecord applies a partial edit and logs before/after snapshots.
// Values that normalize to nothing make the call a no-op.
func (s *Session) UpdateRecord(recordID int64, values map[int64]any) error {
	vals, err := s.normalizeValues(values)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}
	before, err := s.store.GetRecord(s.table.ID, recordID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateRecord(s.table.ID, recordID, vals); err != nil {
		return err
	}
	after, err := s.store.GetRecord(s.table.ID, recordID)
	if err != nil {
		return err
	}
	beforeSnap := before.Snapshot()
	afterSnap := after.Snapshot()
	s.history.Record(Command{
		Kind:     CommandEdit,
		Label:    "Edit record",
		TableID:  s.table.ID,
		RecordID: recordID,
		Before:   &beforeSnap,
		After:    &afterSnap,
	})
	return nil
}

// DeleteRecord removes a record, capturing the full row first so undo can
// bring it back under its original id and timestamps.
func (s *Session) DeleteRecord(recordID int64) error {
	before, err := s.store.GetRecord(s.table.ID, recordID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecord(s.table.ID, recordID); err != nil {
		return err
	}
	snap := before.Snapshot()
	s.history.Record(Command{
		Kind:     CommandDelete,
		Label:    "Delete record",
		TableID:  s.table.ID,
		RecordID: recordID,
		Before:   &snap,
	})
	return nil
}

// Undo reverts the most recent recorded mutation, if any.
func (s *Session) Undo() error { return s.history.Undo(s.revert) }

// Redo reapplies the most recently undone mutation, if any.
func (s *Session) Redo() error { return s.history.Redo(s.apply) }

func (s *Session) apply(cmd Command) error {
	switch cmd.Kind {
	case CommandAdd:
		return s.store.InsertRecordWithID(cmd.TableID, cmd.RecordID, cmd.After.Values,
			cmd.After.CreatedAt, cmd.After.UpdatedAt)
	case CommandEdit:
		return s.store.UpdateRecord(cmd.TableID, cmd.RecordID, cmd.After.Values)
	case CommandDelete:
		return s.store.DeleteRecord(cmd.TableID, cmd.RecordID)
	}
	return nil
}

func (s *Session) revert(cmd Command) error {
	switch cmd.Kind {
	case CommandAdd:
		return s.store.DeleteRecord(cmd.TableID, cmd.RecordID)
	case CommandEdit:
		return s.store.UpdateRecord(cmd.TableID, cmd.RecordID, cmd.Before.Values)
	case CommandDelete:
		return s.store.InsertRecordWithID(cmd.TableID, cmd.RecordID, cmd.Before.Values,
			cmd.Before.CreatedAt, cmd.Before.UpdatedAt)
	}
	return nil
}

// DisplayValue renders one stored value for presentation: bool fields use
// the configured labels, relation fields resolve through the option cache,
// everything else is stringified.
func (s *Session) DisplayValue(f types.Field, raw any) string {
	if raw == nil {
		return ""
	}
	switch f.FType {
	case types.FieldTypeBool:
		switch v := raw.(type) {
		case bool:
			return s.display.BoolLabel(v)
		case int64:
			return s.display.BoolLabel(v != 0)
		case float64:
			return s.display.BoolLabel(v != 0)
		case string:
			if b, ok := types.DefaultSearchVocabulary().BoolToken(v); ok {
				return s.display.BoolLabel(b)
			}
			return ""
		default:
			return ""
		}
	case types.FieldTypeRelation:
		return s.resolver.Label(f, raw)
	default:
		return displayString(raw)
	}
}

func displayString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// normalizeValues coerces caller-supplied values to the storage types of
// their fields. Ids that do not name a live field are dropped, mirroring
// how queries treat stale field references.
func (s *Session) normalizeValues(values map[int64]any) (map[int64]any, error) {
	out := make(map[int64]any, len(values))
	for fid, raw := range values {
		var field *types.Field
		for i := range s.fields {
			if s.fields[i].ID == fid {
				field = &s.fields[i]
				break
			}
		}
		if field == nil {
			continue
		}
		v, err := normalizeValue(*field, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		out[fid] = v
	}
	return out, nil
}

func normalizeValue(f types.Field, raw any) (any, error) {
	if raw == nil {
		return types.ZeroValue(f.FType)
	}
	switch f.FType {
	case types.FieldTypeNumber:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return float64(0), nil
			}
			num, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number: %w", v, types.ErrInvalidValue)
			}
			return num, nil
		default:
			return nil, fmt.Errorf("unsupported number value %T: %w", raw, types.ErrInvalidValue)
		}
	case types.FieldTypeBool:
		switch v := raw.(type) {
		case bool:
			return boolInt(v), nil
		case int:
			return boolInt(v == 1), nil
		case int64:
			return boolInt(v == 1), nil
		case float64:
			return boolInt(v == 1), nil
		case string:
			b, ok := types.DefaultSearchVocabulary().BoolToken(strings.TrimSpace(v))
			return boolInt(ok && b), nil
		default:
			return nil, fmt.Errorf("unsupported bool value %T: %w", raw, types.ErrInvalidValue)
		}
	case types.FieldTypeRelation:
		switch v := raw.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			return int64(v), nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return int64(0), nil
			}
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a record id: %w", v, types.ErrInvalidValue)
			}
			return id, nil
		default:
			return nil, fmt.Errorf("unsupported relation value %T: %w", raw, types.ErrInvalidValue)
		}
	case types.FieldTypeText, types.FieldTypeFile, types.FieldTypePath:
		return strings.TrimSpace(displayString(raw)), nil
	default:
		return displayString(raw), nil
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
