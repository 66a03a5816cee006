package models

import (
	"time"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID          string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string             `gorm:"type:varchar(36);not null;index" json:"userId"`
	Ingredients burger.Ingredients `gorm:"type:text;serializer:json" json:"ingredients"`
	Price       decimal.Decimal    `gorm:"type:decimal(10,2)" json:"price"`
	OrderData   burger.ContactData `gorm:"type:text;serializer:json" json:"orderData"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
