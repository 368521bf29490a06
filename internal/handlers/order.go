package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Address     string              `json:"address"`
	PhoneNumber string              `json:"phoneNumber"`
	CartItems   []services.CartLine `json:"cartItems"`
}

// CreateOrder allows authenticated users to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Create(c.UserContext(), actor, services.CreateOrderInput{
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Items:       req.CartItems,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "order created",
		"orderId": order.ID,
	})
}

// ListOrders returns the caller's orders, or all orders for admins.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns a single order with its items.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.orders.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   detail.Order,
		"items":   detail.Items,
	})
}

type updateStatusRequest struct {
	Status *int `json:"status" validate:"required"`
}

// UpdateStatus moves an order to a new status (admin).
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), actor, id, models.OrderStatus(*req.Status))
	if err != nil {
		return err
	}

	return message(c, fiber.StatusOK, "order status updated to "+order.Status.String())
}

// CancelOrder lets the owner cancel a pending order.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.orders.Cancel(c.UserContext(), actor, id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "order cancelled")
}
