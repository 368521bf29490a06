package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler exposes product endpoints. Writes accept multipart forms with an
// optional "image" file.
type ProductHandler struct {
	catalog   *services.CatalogService
	uploadDir string
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(catalog *services.CatalogService, uploadDir string) *ProductHandler {
	return &ProductHandler{catalog: catalog, uploadDir: uploadDir}
}

// ListProducts returns active products, optionally filtered by category_id.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	var filter services.ProductFilter
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	products, err := h.catalog.ListProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

// ListAllProducts returns every product including hidden ones.
func (h *ProductHandler) ListAllProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext(), services.ProductFilter{IncludeHidden: true})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

// GetProduct returns a product by ID.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	in, err := parseProductForm(c)
	if err != nil {
		return err
	}

	image, err := h.saveImage(c)
	if err != nil {
		return err
	}
	if image != "" {
		in.Image = &image
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		h.discardImage(image)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct applies the submitted fields to an existing product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	in, err := parseProductForm(c)
	if err != nil {
		return err
	}

	image, err := h.saveImage(c)
	if err != nil {
		return err
	}
	if image != "" {
		in.Image = &image
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		h.discardImage(image)
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct hides a product from the storefront.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "product deleted")
}

// saveImage stores the uploaded "image" file, if any, and returns its filename.
func (h *ProductHandler) saveImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}

	name, err := utils.NewImageFilename(file.Filename)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return "", fiber.NewError(fiber.StatusBadRequest, "image must be a jpg, jpeg, png, gif or webp file")
		}
		return "", err
	}

	if err := c.SaveFile(file, filepath.Join(h.uploadDir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (h *ProductHandler) discardImage(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(h.uploadDir, name)); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("file", name).Warn("failed to remove orphaned upload")
	}
}

func formValue(c *fiber.Ctx, key string) (string, bool) {
	value := strings.TrimSpace(c.FormValue(key))
	return value, value != ""
}

func parseProductForm(c *fiber.Ctx) (services.ProductInput, error) {
	var in services.ProductInput

	if v, ok := formValue(c, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(c, "description"); ok {
		in.Description = &v
	}
	if v, ok := formValue(c, "image"); ok {
		in.Image = &v
	}
	if v, ok := formValue(c, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "invalid price")
		}
		in.Price = &price
	}
	if v, ok := formValue(c, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "invalid stock")
		}
		in.Stock = &stock
	}
	if v, ok := formValue(c, "status"); ok {
		status, err := strconv.Atoi(v)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		productStatus := models.ProductStatus(status)
		in.Status = &productStatus
	}
	if v, ok := formValue(c, "category_id"); ok {
		if v == "0" || strings.EqualFold(v, "null") {
			in.ClearCategory = true
		} else {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return in, fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
			}
			categoryID := uint(id)
			in.CategoryID = &categoryID
		}
	}

	return in, nil
}
