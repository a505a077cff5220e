package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TablePrefs stores per-table presentation preferences as a keyed blob,
// one row per table, written with upsert semantics.
type TablePrefs struct {
	TableID   int64     `gorm:"primaryKey" json:"table_id"`
	Prefs     Prefs     `gorm:"column:prefs_json;type:text;not null;default:'{}'" json:"prefs"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName maps TablePrefs onto the meta_table_prefs catalog table.
func (TablePrefs) TableName() string { return "meta_table_prefs" }

// Prefs is the typed form of a prefs_json blob. Zero LastViewID means no
// view has been remembered yet. FieldOrder is an advisory copy of the last
// applied ordering; the authoritative order is Field.Position.
type Prefs struct {
	HiddenFieldIDs []int64 `json:"hidden_field_ids,omitempty"`
	FieldOrder     []int64 `json:"field_order,omitempty"`
	LastViewID     int64   `json:"last_view_id,omitempty"`
}

// Value serializes the prefs to a JSON string for storage.
func (p Prefs) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling prefs: %w", err)
	}
	return string(b), nil
}

// Scan deserializes a stored prefs_json blob. NULL, empty, and malformed
// blobs scan as the zero prefs.
func (p *Prefs) Scan(value interface{}) error {
	*p = Prefs{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported prefs_json type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		*p = Prefs{}
	}
	return nil
}
