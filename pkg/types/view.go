package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// View is a named, saved arrangement of one table: filters, sort, search,
// and column presentation. View names are unique per table.
type View struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TableID   int64     `gorm:"uniqueIndex:idx_meta_views_table_name;not null" json:"table_id"`
	Name      string    `gorm:"uniqueIndex:idx_meta_views_table_name;not null" json:"name"`
	State     ViewState `gorm:"column:view_json;type:text;not null;default:'{}'" json:"state"`
	Position  *int64    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName maps View onto the meta_views catalog table.
func (View) TableName() string { return "meta_views" }

// ViewState is the typed form of a view's view_json blob. Filters are keyed
// by field id. Zero SortFieldID means "sort by record id". Readers tolerate
// missing keys, so legacy blobs load with all-default state.
type ViewState struct {
	Filters        map[int64]Filter `json:"filters,omitempty"`
	SortFieldID    int64            `json:"sort_field_id,omitempty"`
	SortDir        string           `json:"sort_dir,omitempty"`
	Search         string           `json:"search,omitempty"`
	HiddenFieldIDs []int64          `json:"hidden_field_ids,omitempty"`
	FieldsPanel    bool             `json:"fields_panel,omitempty"`
	ColWidths      map[int64]int    `json:"col_widths,omitempty"`
}

// Value serializes the view state to a JSON string for storage.
func (s ViewState) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling view state: %w", err)
	}
	return string(b), nil
}

// Scan deserializes a stored view_json blob. NULL, empty, and malformed
// blobs scan as the zero state.
func (s *ViewState) Scan(value interface{}) error {
	*s = ViewState{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported view_json type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		*s = ViewState{}
	}
	return nil
}
