package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewService manages product reviews.
type ReviewService struct {
	db        *gorm.DB
	imageBase string
	now       func() time.Time
}

// NewReviewService constructs ReviewService.
func NewReviewService(db *gorm.DB, imageBaseURL string) *ReviewService {
	return &ReviewService{db: db, imageBase: imageBaseURL, now: time.Now}
}

// ReviewView is a review joined with its author and product.
type ReviewView struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	ProductID    uint      `json:"product_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	ProductName  string    `json:"product_name,omitempty"`
	ProductImage string    `json:"product_image,omitempty"`
}

// Submit creates or replaces the caller's review of a product. The caller must have
// received at least one delivered order containing the product. The returned bool
// is true when a new row was inserted.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, productID uint, rating int, comment string) (*models.Review, bool, error) {
	if rating < minRating || rating > maxRating {
		return nil, false, Validation("rating must be between %d and %d", minRating, maxRating)
	}
	comment = strings.TrimSpace(comment)

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.Select("id").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, NotFound("product not found")
		}
		return nil, false, Internal(err, "failed to load product")
	}

	var delivered int64
	if err := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status = ?",
			actor.UserID, productID, models.OrderDelivered).
		Count(&delivered).Error; err != nil {
		return nil, false, Internal(err, "failed to check delivered orders")
	}
	if delivered == 0 {
		return nil, false, Forbidden("reviewable only after delivery")
	}

	var review models.Review
	var created bool
	upsert := func(tx *gorm.DB) error {
		review = models.Review{}
		created = false
		err := tx.Where("user_id = ? AND product_id = ?", actor.UserID, productID).First(&review).Error
		switch {
		case err == nil:
			review.Rating = rating
			review.Comment = comment
			review.CreatedAt = s.now()
			return tx.Model(&review).Updates(map[string]interface{}{
				"rating":     review.Rating,
				"comment":    review.Comment,
				"created_at": review.CreatedAt,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{
				UserID:    actor.UserID,
				ProductID: productID,
				Rating:    rating,
				Comment:   comment,
				CreatedAt: s.now(),
			}
			created = true
			return tx.Create(&review).Error
		default:
			return err
		}
	}

	err := db.Transaction(upsert)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent submit inserted first; the retry finds its row and updates it
		err = db.Transaction(upsert)
	}
	if err != nil {
		return nil, false, Internal(err, "failed to save review")
	}

	logrus.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"user_id":    actor.UserID,
		"product_id": productID,
		"rating":     rating,
		"created":    created,
	}).Info("review saved")

	return &review, created, nil
}

// Delete removes a review owned by the caller, or any review for admins.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)

	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("review not found")
		}
		return Internal(err, "failed to load review")
	}

	if !actor.IsAdmin() && !actor.Owns(review.UserID) {
		return Forbidden("only the author or an admin can delete this review")
	}

	if err := db.Delete(&review).Error; err != nil {
		return Internal(err, "failed to delete review")
	}
	return nil
}

// ListForProduct returns a product's reviews with reviewer names, newest first.
func (s *ReviewService) ListForProduct(ctx context.Context, productID uint) ([]ReviewView, error) {
	reviews := []ReviewView{}
	if err := s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id, reviews.user_id, reviews.product_id, reviews.rating, reviews.comment, reviews.created_at, "+
			"COALESCE(users.username, '') AS username, COALESCE(users.full_name, '') AS full_name").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at desc").Order("reviews.id desc").
		Scan(&reviews).Error; err != nil {
		return nil, Internal(err, "failed to list reviews")
	}
	return reviews, nil
}

// ListAll returns every review joined with reviewer and product, newest first.
func (s *ReviewService) ListAll(ctx context.Context) ([]ReviewView, error) {
	reviews := []ReviewView{}
	if err := s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id, reviews.user_id, reviews.product_id, reviews.rating, reviews.comment, reviews.created_at, " +
			"COALESCE(users.username, '') AS username, COALESCE(users.full_name, '') AS full_name, " +
			"COALESCE(products.name, '') AS product_name, COALESCE(products.image, '') AS product_image").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Joins("LEFT JOIN products ON products.id = reviews.product_id").
		Order("reviews.created_at desc").Order("reviews.id desc").
		Scan(&reviews).Error; err != nil {
		return nil, Internal(err, "failed to list reviews")
	}

	for i := range reviews {
		reviews[i].ProductImage = utils.ResolveImageURL(s.imageBase, reviews[i].ProductImage)
	}
	return reviews, nil
}
