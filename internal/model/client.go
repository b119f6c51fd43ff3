package model

// Client is a customer of the shop. Deleting a client only deactivates it.
type Client struct {
	Base
	Name     string `gorm:"type:varchar(200);not null;index" json:"name"`
	Company  string `gorm:"type:varchar(200)" json:"company"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Email    string `gorm:"type:varchar(255)" json:"email"`
	Address  string `gorm:"type:text" json:"address"`
	RTN      string `gorm:"column:rtn;type:varchar(20);index" json:"rtn"` // tax id
	Notes    string `gorm:"type:text" json:"notes"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}
