package types

import (
	"fmt"
	"time"
)

// Field is the catalog entry for one column of a logical table. Active=false
// is a soft delete: the physical column and its values stay in place but the
// field disappears from catalog reads and queries. Position drives display
// order; rows predating explicit ordering have a nil Position and sort by id.
type Field struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	TableID   int64        `gorm:"index;not null" json:"table_id"`
	Name      string       `gorm:"not null" json:"name"`
	FType     string       `gorm:"column:ftype;not null" json:"ftype"`
	Required  bool         `gorm:"not null;default:false" json:"required"`
	Active    bool         `gorm:"not null;default:true;index" json:"active"`
	Position  *int64       `json:"position"`
	Options   FieldOptions `gorm:"column:options_json;type:text;not null;default:'{}'" json:"options"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName maps Field onto the meta_fields catalog table.
func (Field) TableName() string { return "meta_fields" }

// ColumnName returns the physical column backing this field.
func (f Field) ColumnName() string {
	return fmt.Sprintf("f_%d", f.ID)
}
