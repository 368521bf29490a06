package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// VoucherService manages the admin voucher catalog. Vouchers are not applied at checkout.
type VoucherService struct {
	db *gorm.DB
}

// NewVoucherService constructs VoucherService.
func NewVoucherService(db *gorm.DB) *VoucherService {
	return &VoucherService{db: db}
}

// VoucherInput carries voucher fields; nil fields are left unchanged on update.
type VoucherInput struct {
	Code         *string
	Discount     *decimal.Decimal
	IsActive     *bool
	ExpiresAt    *time.Time
	ClearExpires bool
}

// NormalizeVoucherCode trims and upper-cases code and checks its length.
func NormalizeVoucherCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if utf8.RuneCountInString(code) != models.VoucherCodeLength {
		return "", Validation("voucher code must be exactly %d characters", models.VoucherCodeLength)
	}
	return code, nil
}

// List returns all vouchers, newest first.
func (s *VoucherService) List(ctx context.Context) ([]models.Voucher, error) {
	vouchers := []models.Voucher{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, Internal(err, "failed to list vouchers")
	}

	now := time.Now()
	for i := range vouchers {
		markUsable(&vouchers[i], now)
	}
	return vouchers, nil
}

// Get returns a voucher by id.
func (s *VoucherService) Get(ctx context.Context, id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := s.db.WithContext(ctx).First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("voucher not found")
		}
		return nil, Internal(err, "failed to load voucher")
	}
	markUsable(&voucher, time.Now())
	return &voucher, nil
}

// Create inserts a voucher. Code and discount are required; IsActive defaults to true.
func (s *VoucherService) Create(ctx context.Context, in VoucherInput) (*models.Voucher, error) {
	if in.Code == nil {
		return nil, Validation("voucher code is required")
	}
	if in.Discount == nil {
		return nil, Validation("discount is required")
	}

	voucher := models.Voucher{IsActive: true}
	if err := s.apply(ctx, &voucher, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&voucher).Error; err != nil {
		return nil, voucherWriteError(err, voucher.Code, "failed to create voucher")
	}
	markUsable(&voucher, time.Now())
	return &voucher, nil
}

// Update applies the non-nil fields of in.
func (s *VoucherService) Update(ctx context.Context, id uint, in VoucherInput) (*models.Voucher, error) {
	voucher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, voucher, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(voucher).Error; err != nil {
		return nil, voucherWriteError(err, voucher.Code, "failed to update voucher")
	}
	markUsable(voucher, time.Now())
	return voucher, nil
}

// Delete removes a voucher.
func (s *VoucherService) Delete(ctx context.Context, id uint) error {
	return applyDeletion(ctx, s.db, &models.Voucher{}, "voucher", id)
}

func markUsable(voucher *models.Voucher, now time.Time) {
	voucher.Usable = voucher.IsUsable(now)
}

func voucherWriteError(err error, code, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("voucher code %s already exists", code)
	}
	return Internal(err, msg)
}

func (s *VoucherService) apply(ctx context.Context, voucher *models.Voucher, in VoucherInput) error {
	if in.Code != nil {
		code, err := NormalizeVoucherCode(*in.Code)
		if err != nil {
			return err
		}

		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.Voucher{}).
			Where("code = ? AND id <> ?", code, voucher.ID).
			Count(&taken).Error; err != nil {
			return Internal(err, "failed to check voucher code")
		}
		if taken > 0 {
			return Conflict("voucher code %s already exists", code)
		}
		voucher.Code = code
	}
	if in.Discount != nil {
		if !in.Discount.IsPositive() {
			return Validation("discount must be a positive number")
		}
		if !models.FitsMoneyScale(*in.Discount) {
			return Validation("discount must have at most %d decimal places", models.MoneyScale)
		}
		voucher.Discount = *in.Discount
	}
	if in.IsActive != nil {
		voucher.IsActive = *in.IsActive
	}
	switch {
	case in.ClearExpires:
		voucher.ExpiresAt = nil
	case in.ExpiresAt != nil:
		expires := *in.ExpiresAt
		voucher.ExpiresAt = &expires
	}
	return nil
}
