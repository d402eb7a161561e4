package storage

import (
	"context"
	"errors"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
)

// Sentinel errors returned by store implementations. Services translate
// these into the caller-visible error taxonomy.
var (
	// ErrNotFound reports an absent record.
	ErrNotFound = errors.New("storage: not found")
	// ErrNotOwned reports that no line item matched both the product id and
	// the vendor's ownership. Implementations return it without revealing
	// whether the product exists under another vendor.
	ErrNotOwned = errors.New("storage: item not owned by vendor")
	// ErrPrecondition reports a transition attempted from a disallowed state.
	ErrPrecondition = errors.New("storage: item state precondition failed")
	// ErrDuplicate reports a uniqueness violation.
	ErrDuplicate = errors.New("storage: duplicate record")
)

// OrderStore persists orders and applies item-scoped status transitions.
//
// The Update* mutations must be atomic with respect to the ownership check:
// the matching item is located and written in one conditional operation, so
// concurrent transitions on different items of the same order never lose
// updates.
type OrderStore interface {
	CreateOrder(ctx context.Context, ord order.Order) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (order.Order, error)
	// ListOrders returns every order in creation order, items in their
	// original sequence. Callers rely on this ordering being stable.
	ListOrders(ctx context.Context) ([]order.Order, error)

	// UpdateItemFulfillment sets the fulfillment status of the item in the
	// order matching productID and owned by vendorID. Returns ErrNotFound if
	// the order is absent, ErrNotOwned if no item matches both conditions.
	UpdateItemFulfillment(ctx context.Context, orderID, productID, vendorID string, status order.FulfillmentStatus) error
	// UpdateItemHandover marks the matching owned item handed over,
	// addressed by order number. The item must already be accepted;
	// otherwise ErrPrecondition is returned.
	UpdateItemHandover(ctx context.Context, orderNumber, productID, vendorID string) error
	// UpdateItemDelivery is the write surface used by the downstream
	// delivery process, not by vendors.
	UpdateItemDelivery(ctx context.Context, orderID, productID string, status order.DeliveryStatus) error
}

// ProductStore persists catalog entries and resolves product ownership.
type ProductStore interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id string) (product.Product, error)
	ListProductsByVendor(ctx context.Context, vendorID string) ([]product.Product, error)
	CountProductsByVendor(ctx context.Context, vendorID string) (int, error)
	DeleteProduct(ctx context.Context, id, vendorID string) error

	// OwnersOf resolves ownership for a set of product ids in one lookup.
	// Unknown ids are simply absent from the result map.
	OwnersOf(ctx context.Context, productIDs []string) (map[string]string, error)
	// FindProducts fetches a set of products keyed by id in one lookup.
	FindProducts(ctx context.Context, productIDs []string) (map[string]product.Product, error)
}

// VendorStore persists vendor accounts.
type VendorStore interface {
	CreateVendor(ctx context.Context, v vendor.Vendor) (vendor.Vendor, error)
	UpdateVendor(ctx context.Context, v vendor.Vendor) (vendor.Vendor, error)
	GetVendor(ctx context.Context, id string) (vendor.Vendor, error)
	GetVendorByEmail(ctx context.Context, email string) (vendor.Vendor, error)
	// FindVendorByContact returns a vendor matching either the email or the
	// phone number, for duplicate registration checks.
	FindVendorByContact(ctx context.Context, email, phone string) (vendor.Vendor, error)
}
