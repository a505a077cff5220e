package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldOptions is the typed form of a field's options_json blob. Only the
// keys meaningful for the field's type are populated: Choices for select
// fields, TargetTableID and DisplayFieldID for relation fields. Unknown
// keys in stored blobs are ignored; malformed blobs scan as empty options.
type FieldOptions struct {
	Choices        []string `json:"options,omitempty"`
	TargetTableID  int64    `json:"target_table_id,omitempty"`
	DisplayFieldID int64    `json:"display_field_id,omitempty"`
}

// SelectOptions is the select-field projection of FieldOptions.
type SelectOptions struct {
	Choices []string
}

// RelationOptions is the relation-field projection of FieldOptions.
// DisplayFieldID zero means labels fall back to the record id.
type RelationOptions struct {
	TargetTableID  int64
	DisplayFieldID int64
}

// Select returns the select-field view of the options.
func (o FieldOptions) Select() SelectOptions {
	return SelectOptions{Choices: o.Choices}
}

// Relation returns the relation-field view of the options.
func (o FieldOptions) Relation() RelationOptions {
	return RelationOptions{
		TargetTableID:  o.TargetTableID,
		DisplayFieldID: o.DisplayFieldID,
	}
}

// Value serializes the options to a JSON string for storage.
func (o FieldOptions) Value() (driver.Value, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshaling field options: %w", err)
	}
	return string(b), nil
}

// Scan deserializes the stored options_json blob. NULL, empty, and
// malformed blobs all scan as empty options rather than erroring, so a
// damaged row degrades to defaults instead of blocking catalog reads.
func (o *FieldOptions) Scan(value interface{}) error {
	*o = FieldOptions{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported options_json type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, o); err != nil {
		*o = FieldOptions{}
	}
	return nil
}

// NormalizeChoices trims whitespace, drops empties, and removes duplicates
// from a select-field choice list while preserving first-seen order.
func NormalizeChoices(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// RelationOption is one selectable target record for a relation field.
type RelationOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}
