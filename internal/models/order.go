package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a step of the order lifecycle.
type OrderStatus int

const (
	OrderPending   OrderStatus = 0
	OrderShipping  OrderStatus = 1
	OrderDelivered OrderStatus = 2
	OrderCancelled OrderStatus = 3
)

// IsValid reports whether s is one of the four known states.
func (s OrderStatus) IsValid() bool {
	return s >= OrderPending && s <= OrderCancelled
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderShipping:
		return "shipping"
	case OrderDelivered:
		return "delivered"
	case OrderCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is immutable after creation except for Status.
// UserName, TotalPrice and the item prices are snapshots taken at checkout.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	UserName    string          `json:"user_name"`
	Address     string          `gorm:"not null" json:"address"`
	PhoneNumber string          `gorm:"not null" json:"phone_number"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status      OrderStatus     `gorm:"not null;index" json:"status"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
