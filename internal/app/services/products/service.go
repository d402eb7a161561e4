// Package products manages the vendor catalog, which also backs product
// ownership resolution for the order flow.
package products

import (
	"context"
	"errors"
	"strings"

	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/storage"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Service manages catalog entries.
type Service struct {
	store storage.ProductStore
	log   *logger.Logger
}

// New constructs a products service.
func New(store storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("products")
	}
	return &Service{store: store, log: log}
}

// AddInput carries the fields a vendor submits when listing a product.
type AddInput struct {
	Name           string
	Brand          string
	Category       string
	AlcoholContent float64
	Price          float64
	Stock          int
	Volume         float64
	Description    string
	Image          string
}

// Add lists a new product for the vendor. The liquor type is derived from
// the alcohol content, never taken from the request.
func (s *Service) Add(ctx context.Context, vendorID string, in AddInput) (product.Product, error) {
	if vendorID == "" {
		return product.Product{}, apperrors.InvalidArgument("vendor id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return product.Product{}, apperrors.InvalidArgument("product name is required")
	}
	if in.Price < 0 {
		return product.Product{}, apperrors.InvalidArgument("price cannot be negative")
	}
	if in.Stock < 0 {
		return product.Product{}, apperrors.InvalidArgument("stock cannot be negative")
	}

	p := product.Product{
		VendorID:       vendorID,
		Name:           strings.TrimSpace(in.Name),
		Brand:          strings.TrimSpace(in.Brand),
		Category:       strings.TrimSpace(in.Category),
		AlcoholContent: in.AlcoholContent,
		Price:          in.Price,
		Stock:          in.Stock,
		Volume:         in.Volume,
		Description:    in.Description,
		Image:          in.Image,
		LiquorType:     product.Classify(in.AlcoholContent),
		InStock:        in.Stock > 0,
	}

	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return product.Product{}, storeError(err, created.ID)
	}
	s.log.WithField("product_id", created.ID).
		WithField("vendor_id", vendorID).
		Info("product added")
	return created, nil
}

// ListByVendor returns the vendor's catalog.
func (s *Service) ListByVendor(ctx context.Context, vendorID string) ([]product.Product, error) {
	if vendorID == "" {
		return nil, apperrors.InvalidArgument("vendor id is required")
	}
	list, err := s.store.ListProductsByVendor(ctx, vendorID)
	if err != nil {
		return nil, storeError(err, "")
	}
	return list, nil
}

// UpdateStock sets the stock quantity and keeps the inStock flag aligned.
// Only the owning vendor may update.
func (s *Service) UpdateStock(ctx context.Context, productID, vendorID string, stock int) (product.Product, error) {
	if stock < 0 {
		return product.Product{}, apperrors.InvalidArgument("stock cannot be negative")
	}

	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return product.Product{}, storeError(err, productID)
	}
	if p.VendorID != vendorID {
		return product.Product{}, apperrors.Forbidden("not permitted to update this product")
	}

	p.Stock = stock
	p.InStock = stock > 0
	updated, err := s.store.UpdateProduct(ctx, p)
	if err != nil {
		return product.Product{}, storeError(err, productID)
	}
	return updated, nil
}

// Delete removes a product from the vendor's catalog.
func (s *Service) Delete(ctx context.Context, productID, vendorID string) error {
	if productID == "" || vendorID == "" {
		return apperrors.InvalidArgument("product id and vendor id are required")
	}
	if err := s.store.DeleteProduct(ctx, productID, vendorID); err != nil {
		return storeError(err, productID)
	}
	s.log.WithField("product_id", productID).
		WithField("vendor_id", vendorID).
		Info("product removed")
	return nil
}

func storeError(err error, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound("product", id)
	case errors.Is(err, storage.ErrNotOwned):
		return apperrors.Forbidden("not permitted to update this product")
	case errors.Is(err, storage.ErrDuplicate):
		return apperrors.Conflict("product already exists")
	default:
		return apperrors.Transient("datastore failure", err)
	}
}
