package services

import "github.com/example/storefront/internal/models"

// checkAdminTransition validates a target status requested through the admin endpoint.
// Cancelled is terminal; delivered only admits the cancel escape hatch. Any other
// target is applied as requested, including moves backwards.
func checkAdminTransition(current, target models.OrderStatus) error {
	if !target.IsValid() {
		return Validation("invalid order status %d", int(target))
	}
	if current == models.OrderCancelled {
		return Conflict("order is cancelled, status can no longer change")
	}
	if current == models.OrderDelivered && target != models.OrderCancelled {
		return Conflict("order is delivered, it can only be cancelled")
	}
	return nil
}

// checkSelfCancel validates a customer's own cancellation request.
func checkSelfCancel(current models.OrderStatus) error {
	if current != models.OrderPending {
		return Conflict("order already processed, cannot cancel")
	}
	return nil
}
