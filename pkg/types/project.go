package types

import "time"

// DefaultProjectColor is assigned when a project is created without an
// explicit color.
const DefaultProjectColor = "#4C9AFF"

// Project groups tables in the workspace tree. Projects nest via ParentID;
// deleting a parent removes its subtree but only detaches owned tables.
type Project struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	ParentID  *int64    `gorm:"index" json:"parent_id"`
	Color     string    `gorm:"not null;default:'#4C9AFF'" json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Children []Project `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
	Tables   []Table   `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName maps Project onto the meta_projects catalog table.
func (Project) TableName() string { return "meta_projects" }
