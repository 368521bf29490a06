package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// ReviewHandler manages product review endpoints.
type ReviewHandler struct {
	reviews *services.ReviewService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ListProductReviews returns the reviews of a product, newest first.
func (h *ReviewHandler) ListProductReviews(c *fiber.Ctx) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	reviews, err := h.reviews.ListForProduct(c.UserContext(), productID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": reviews})
}

// SubmitReview creates or replaces the caller's review of a delivered product.
func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, created, err := h.reviews.Submit(c.UserContext(), actor, productID, req.Rating, req.Comment)
	if err != nil {
		return err
	}

	status, text := fiber.StatusOK, "review updated"
	if created {
		status, text = fiber.StatusCreated, "review submitted"
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "message": text, "data": review})
}

// DeleteReview removes a review owned by the caller, or any review for admins.
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.reviews.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "review deleted")
}

// ListAllReviews returns every review with reviewer and product details.
func (h *ReviewHandler) ListAllReviews(c *fiber.Ctx) error {
	reviews, err := h.reviews.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": reviews})
}
