// Package orders implements the vendor-scoped order views and the
// authorization-gated fulfillment transitions.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/storage"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Service builds vendor order views and applies line item transitions.
type Service struct {
	orders   storage.OrderStore
	products storage.ProductStore
	log      *logger.Logger
}

// New constructs an orders service.
func New(orders storage.OrderStore, products storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{orders: orders, products: products, log: log}
}

// CreateOrder records a new order with its item snapshots. Used by the
// customer-facing intake path and by fixtures.
func (s *Service) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	if ord.UserID == "" {
		return order.Order{}, apperrors.InvalidArgument("user id is required")
	}
	if len(ord.Items) == 0 {
		return order.Order{}, apperrors.InvalidArgument("order needs at least one item")
	}
	for _, item := range ord.Items {
		if item.ProductID == "" {
			return order.Order{}, apperrors.InvalidArgument("every item needs a product id")
		}
		if item.Quantity <= 0 {
			return order.Order{}, apperrors.InvalidArgument("item quantity must be positive")
		}
	}

	created, err := s.orders.CreateOrder(ctx, ord)
	if err != nil {
		return order.Order{}, storeError(err, "order", ord.ID)
	}
	s.log.WithField("order_id", created.ID).
		WithField("order_number", created.OrderNumber).
		Info("order created")
	return created, nil
}

// ListForVendor returns every order containing at least one item owned by
// vendorID, reduced to that vendor's items. Result order follows the store's
// retrieval order; ownership is resolved with one batch lookup, and items
// carry the catalog's current name and image alongside the order snapshot.
func (s *Service) ListForVendor(ctx context.Context, vendorID string) ([]order.VendorOrderView, error) {
	if vendorID == "" {
		return nil, apperrors.InvalidArgument("vendor id is required")
	}

	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, storeError(err, "order", "")
	}

	owners, err := s.resolveOwners(ctx, all)
	if err != nil {
		return nil, err
	}

	ownedIDs := make([]string, 0, len(owners))
	for id, owner := range owners {
		if owner == vendorID {
			ownedIDs = append(ownedIDs, id)
		}
	}
	catalog, err := s.products.FindProducts(ctx, ownedIDs)
	if err != nil {
		return nil, storeError(err, "product", "")
	}

	views := make([]order.VendorOrderView, 0)
	for _, ord := range all {
		var items []order.VendorOrderItem
		for _, item := range ord.Items {
			if owners[item.ProductID] != vendorID {
				continue
			}
			view := order.VendorOrderItem{
				ProductID:         item.ProductID,
				Name:              item.Name,
				Image:             item.Image,
				Price:             item.Price,
				Quantity:          item.Quantity,
				FulfillmentStatus: item.FulfillmentStatus,
			}
			if p, ok := catalog[item.ProductID]; ok {
				view.ProductName = p.Name
				view.ProductImage = p.Image
			}
			items = append(items, view)
		}
		if len(items) == 0 {
			continue
		}
		views = append(views, order.VendorOrderView{
			OrderID:         ord.ID,
			OrderNumber:     ord.OrderNumber,
			CustomerID:      ord.UserID,
			CustomerName:    customerName(ord),
			CustomerPhone:   ord.DeliveryAddress.Phone,
			CustomerAddress: fullAddress(ord.DeliveryAddress),
			PaymentStatus:   ord.PaymentStatus,
			TransactionID:   ord.TransactionID,
			TotalAmount:     ord.TotalAmount,
			CreatedAt:       ord.CreatedAt,
			Items:           items,
		})
	}
	return views, nil
}

// ListReadyForPickup returns the vendor's accepted items flattened to one
// row per item, each with its computed line total.
func (s *Service) ListReadyForPickup(ctx context.Context, vendorID string) ([]order.ReadyItem, error) {
	if vendorID == "" {
		return nil, apperrors.InvalidArgument("vendor id is required")
	}

	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, storeError(err, "order", "")
	}

	owners, err := s.resolveOwners(ctx, all)
	if err != nil {
		return nil, err
	}

	ready := make([]order.ReadyItem, 0)
	for _, ord := range all {
		for _, item := range ord.Items {
			if owners[item.ProductID] != vendorID || item.FulfillmentStatus != order.FulfillmentAccepted {
				continue
			}
			ready = append(ready, order.ReadyItem{
				OrderID:         ord.ID,
				OrderNumber:     ord.OrderNumber,
				ProductID:       item.ProductID,
				Name:            item.Name,
				Quantity:        item.Quantity,
				Price:           item.Price,
				LineTotal:       item.Price * float64(item.Quantity),
				CustomerName:    customerName(ord),
				CustomerAddress: fmt.Sprintf("%s, %s", ord.DeliveryAddress.Street, ord.DeliveryAddress.City),
				ReadyTime:       ord.CreatedAt,
			})
		}
	}
	return ready, nil
}

// SetFulfillmentStatus applies the vendor's accept/reject decision to the
// matching owned item. Re-applying the same status succeeds. The store
// performs the ownership check and the write as one atomic update.
func (s *Service) SetFulfillmentStatus(ctx context.Context, orderID, productID, vendorID string, status order.FulfillmentStatus) error {
	if orderID == "" || productID == "" || vendorID == "" {
		return apperrors.InvalidArgument("order id, product id and vendor id are required")
	}
	if status != order.FulfillmentAccepted && status != order.FulfillmentRejected {
		return apperrors.InvalidArgument(fmt.Sprintf("invalid status value %q", status))
	}

	if err := s.orders.UpdateItemFulfillment(ctx, orderID, productID, vendorID, status); err != nil {
		return storeError(err, "order", orderID)
	}
	s.log.WithField("order_id", orderID).
		WithField("product_id", productID).
		WithField("status", status).
		Info("order item status updated")
	return nil
}

// MarkHandedOver marks the matching owned item handed over, addressed by
// order number. The item must have been accepted first; a pending or
// rejected item yields Conflict.
func (s *Service) MarkHandedOver(ctx context.Context, orderNumber, productID, vendorID string) error {
	if orderNumber == "" || productID == "" || vendorID == "" {
		return apperrors.InvalidArgument("order number, product id and vendor id are required")
	}

	if err := s.orders.UpdateItemHandover(ctx, orderNumber, productID, vendorID); err != nil {
		return storeError(err, "order", orderNumber)
	}
	s.log.WithField("order_number", orderNumber).
		WithField("product_id", productID).
		Info("order item handed over")
	return nil
}

// MarkDelivered is the write surface of the downstream delivery process.
func (s *Service) MarkDelivered(ctx context.Context, orderID, productID string) error {
	if orderID == "" || productID == "" {
		return apperrors.InvalidArgument("order id and product id are required")
	}
	if err := s.orders.UpdateItemDelivery(ctx, orderID, productID, order.DeliveryDelivered); err != nil {
		return storeError(err, "order", orderID)
	}
	return nil
}

// resolveOwners collects the distinct product ids referenced by ords and
// resolves ownership with a single batch lookup.
func (s *Service) resolveOwners(ctx context.Context, ords []order.Order) (map[string]string, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, ord := range ords {
		for _, item := range ord.Items {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	owners, err := s.products.OwnersOf(ctx, ids)
	if err != nil {
		return nil, storeError(err, "product", "")
	}
	return owners, nil
}

func customerName(ord order.Order) string {
	if name := strings.TrimSpace(ord.DeliveryAddress.FullName); name != "" {
		return name
	}
	return "Customer"
}

func fullAddress(addr order.DeliveryAddress) string {
	return fmt.Sprintf("%s, %s, %s - %s", addr.Street, addr.City, addr.State, addr.Pincode)
}

// storeError maps storage sentinels to caller-visible outcomes. Ownership
// misses surface as a bare Forbidden so callers learn nothing about items
// they do not own.
func storeError(err error, entity, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound(entity, id)
	case errors.Is(err, storage.ErrNotOwned):
		return apperrors.Forbidden("not permitted to update this item")
	case errors.Is(err, storage.ErrPrecondition):
		return apperrors.Conflict("item has not been accepted")
	case errors.Is(err, storage.ErrDuplicate):
		return apperrors.Conflict("duplicate record")
	default:
		return apperrors.Transient("datastore failure", err)
	}
}
