package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every money column stores.
const MoneyScale = 2

// FitsMoneyScale reports whether d can be stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeletionPolicy describes how a delete request is applied to an entity.
type DeletionPolicy int

const (
	// DeletionSoft flips the entity's status column to inactive and keeps the row.
	DeletionSoft DeletionPolicy = iota
	// DeletionGuardedHard removes the row, but only when nothing references it.
	DeletionGuardedHard
)

func (p DeletionPolicy) String() string {
	switch p {
	case DeletionSoft:
		return "soft"
	case DeletionGuardedHard:
		return "guarded-hard"
	default:
		return "unknown"
	}
}

// Deletable is implemented by every model exposed through a delete endpoint.
type Deletable interface {
	DeletionPolicy() DeletionPolicy
}
