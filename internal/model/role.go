package model

// Role groups permission codes. Users reference roles by name.
type Role struct {
	Base
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
}

// Permission is a single capability, e.g. "sales.complete"
type Permission struct {
	Base
	Code  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Group string `gorm:"type:varchar(50);not null;index" json:"group"`
}
