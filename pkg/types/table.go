package types

import (
	"fmt"
	"time"
)

// Table is the catalog entry for one logical table. Its records live in a
// dedicated physical store named by DataTableName, whose column set grows
// as fields are added and never shrinks.
type Table struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	ProjectID *int64    `gorm:"index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Fields []Field     `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"-"`
	Views  []View      `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"-"`
	Prefs  *TablePrefs `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName maps Table onto the meta_tables catalog table.
func (Table) TableName() string { return "meta_tables" }

// DataTableName returns the physical store name for a logical table id.
func DataTableName(tableID int64) string {
	return fmt.Sprintf("data_%d", tableID)
}
