package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/services"
)

// VoucherHandler exposes the admin voucher catalog.
type VoucherHandler struct {
	vouchers *services.VoucherService
}

// NewVoucherHandler constructs VoucherHandler.
func NewVoucherHandler(vouchers *services.VoucherService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

type voucherRequest struct {
	Code         *string          `json:"code"`
	Discount     *decimal.Decimal `json:"discount"`
	IsActive     *bool            `json:"is_active"`
	ExpiresAt    *time.Time       `json:"expires_at"`
	ClearExpires bool             `json:"clear_expires"`
}

func (r voucherRequest) input() services.VoucherInput {
	return services.VoucherInput{
		Code:         r.Code,
		Discount:     r.Discount,
		IsActive:     r.IsActive,
		ExpiresAt:    r.ExpiresAt,
		ClearExpires: r.ClearExpires,
	}
}

// ListVouchers returns all vouchers.
func (h *VoucherHandler) ListVouchers(c *fiber.Ctx) error {
	vouchers, err := h.vouchers.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": vouchers})
}

// GetVoucher returns a voucher by ID.
func (h *VoucherHandler) GetVoucher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	voucher, err := h.vouchers.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": voucher})
}

// CreateVoucher adds a voucher.
func (h *VoucherHandler) CreateVoucher(c *fiber.Ctx) error {
	var req voucherRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	voucher, err := h.vouchers.Create(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": voucher})
}

// UpdateVoucher changes a voucher.
func (h *VoucherHandler) UpdateVoucher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req voucherRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	voucher, err := h.vouchers.Update(c.UserContext(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": voucher})
}

// DeleteVoucher removes a voucher.
func (h *VoucherHandler) DeleteVoucher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.vouchers.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "voucher deleted")
}
