package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherCodeLength is the exact length of every voucher code.
const VoucherCodeLength = 6

type Voucher struct {
	BaseModel
	Code      string          `gorm:"size:6;uniqueIndex;not null" json:"code"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	IsActive  bool            `gorm:"not null" json:"is_active"`
	ExpiresAt *time.Time      `json:"expires_at"`
	Usable    bool            `gorm:"-" json:"usable"`
}

// IsUsable reports whether the voucher is active and not expired at now.
func (v *Voucher) IsUsable(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	return v.ExpiresAt == nil || v.ExpiresAt.After(now)
}

// DeletionPolicy implements Deletable.
func (Voucher) DeletionPolicy() DeletionPolicy { return DeletionGuardedHard }
