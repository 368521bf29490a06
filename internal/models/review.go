package models

import "time"

// Review is unique per (UserID, ProductID); the review service upserts on that pair.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_reviews_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_reviews_user_product;index;not null" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
