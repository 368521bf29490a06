package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// CatalogService manages categories and products.
type CatalogService struct {
	db        *gorm.DB
	imageBase string
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(db *gorm.DB, imageBaseURL string) *CatalogService {
	return &CatalogService{db: db, imageBase: imageBaseURL}
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID    *uint
	IncludeHidden bool
}

// ProductInput carries product fields; nil fields are left unchanged on update.
type ProductInput struct {
	Name          *string
	Price         *decimal.Decimal
	Description   *string
	Image         *string
	Stock         *int
	CategoryID    *uint
	ClearCategory bool
	Status        *models.ProductStatus
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, Internal(err, "failed to list categories")
	}
	return categories, nil
}

// GetCategory returns a single category.
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("category not found")
		}
		return nil, Internal(err, "failed to load category")
	}
	return &category, nil
}

// CreateCategory persists a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("category name is required")
	}

	category := models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, Internal(err, "failed to create category")
	}
	return &category, nil
}

// UpdateCategory renames a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("category name is required")
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(category).Update("name", name).Error; err != nil {
		return nil, Internal(err, "failed to update category")
	}
	return category, nil
}

// DeleteCategory removes a category that no product references.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := applyDeletion(ctx, s.db, &models.Category{}, "category", id, referenceGuard{
		model:   &models.Product{},
		column:  "category_id",
		message: "category still has products",
	})
	if err == nil {
		logrus.WithField("category_id", id).Info("category deleted")
	}
	return err
}

// ListProducts returns products with resolved image URLs, newest first. Hidden
// products are only included when the filter asks for them.
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if !filter.IncludeHidden {
		query = query.Where("status = ?", models.ProductActive)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	products := []models.Product{}
	if err := query.Order("created_at desc").Order("id desc").Find(&products).Error; err != nil {
		return nil, Internal(err, "failed to list products")
	}

	for i := range products {
		s.resolve(&products[i])
	}
	return products, nil
}

// GetProduct returns a product by id regardless of its status.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolve(product)
	return product, nil
}

// CreateProduct validates input and inserts a product. Status defaults to active.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, Validation("product name is required")
	}
	if in.Price == nil {
		return nil, Validation("product price is required")
	}

	product := models.Product{Status: models.ProductActive}
	if err := s.applyProductInput(ctx, &product, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, Internal(err, "failed to create product")
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"price":      product.Price.String(),
	}).Info("product created")

	s.resolve(&product)
	return &product, nil
}

// UpdateProduct applies the non-nil fields of in to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyProductInput(ctx, product, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, Internal(err, "failed to update product")
	}

	s.resolve(product)
	return product, nil
}

// DeleteProduct hides a product; the row stays for order history.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := applyDeletion(ctx, s.db, &models.Product{}, "product", id)
	if err == nil {
		logrus.WithField("product_id", id).Info("product hidden")
	}
	return err
}

func (s *CatalogService) loadProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("product not found")
		}
		return nil, Internal(err, "failed to load product")
	}
	return &product, nil
}

func (s *CatalogService) applyProductInput(ctx context.Context, product *models.Product, in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Validation("product name is required")
		}
		product.Name = name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return Validation("price must not be negative")
		}
		if !models.FitsMoneyScale(*in.Price) {
			return Validation("price must have at most %d decimal places", models.MoneyScale)
		}
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		product.Image = strings.TrimSpace(*in.Image)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return Validation("stock must not be negative")
		}
		product.Stock = *in.Stock
	}
	if in.Status != nil {
		if *in.Status != models.ProductActive && *in.Status != models.ProductHidden {
			return Validation("invalid product status %d", int(*in.Status))
		}
		product.Status = *in.Status
	}

	switch {
	case in.ClearCategory:
		product.CategoryID = nil
	case in.CategoryID != nil:
		if _, err := s.GetCategory(ctx, *in.CategoryID); err != nil {
			if IsKind(err, KindNotFound) {
				return Validation("category %d does not exist", *in.CategoryID)
			}
			return err
		}
		categoryID := *in.CategoryID
		product.CategoryID = &categoryID
	}

	return nil
}

func (s *CatalogService) resolve(product *models.Product) {
	product.Image = utils.ResolveImageURL(s.imageBase, product.Image)
}
