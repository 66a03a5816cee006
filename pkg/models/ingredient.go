package models

import "time"

// Ingredient holds the initial quantity served to new builders.
type Ingredient struct {
	Name      string    `gorm:"primaryKey;type:varchar(50)" json:"name"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
