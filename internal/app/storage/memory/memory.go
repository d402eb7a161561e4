// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
	"github.com/drnkly/vendor-service/internal/app/storage"
)

// Store is the in-memory implementation of every storage interface. All
// mutations run under one mutex, which also makes the ownership check and
// item write of the order mutations a single atomic step.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	orders     map[string]order.Order
	orderIDs   []string
	orderByNum map[string]string
	products   map[string]product.Product
	vendors    map[string]vendor.Vendor
}

var _ storage.OrderStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.VendorStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:     1,
		orders:     make(map[string]order.Order),
		orderByNum: make(map[string]string),
		products:   make(map[string]product.Product),
		vendors:    make(map[string]vendor.Vendor),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// OrderStore implementation ---------------------------------------------------

func (s *Store) CreateOrder(_ context.Context, ord order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ord.ID == "" {
		ord.ID = s.nextIDLocked()
	} else if _, exists := s.orders[ord.ID]; exists {
		return order.Order{}, storage.ErrDuplicate
	}
	for ord.OrderNumber == "" || s.orderByNum[ord.OrderNumber] != "" {
		ord.OrderNumber = order.NewNumber()
	}
	if ord.CreatedAt.IsZero() {
		ord.CreatedAt = time.Now().UTC()
	}
	items := make([]order.LineItem, len(ord.Items))
	copy(items, ord.Items)
	for i := range items {
		if items[i].FulfillmentStatus == "" {
			items[i].FulfillmentStatus = order.FulfillmentPending
		}
		if items[i].HandoverStatus == "" {
			items[i].HandoverStatus = order.HandoverPending
		}
		if items[i].DeliveryStatus == "" {
			items[i].DeliveryStatus = order.DeliveryPending
		}
	}
	ord.Items = items

	s.orders[ord.ID] = ord
	s.orderIDs = append(s.orderIDs, ord.ID)
	s.orderByNum[ord.OrderNumber] = ord.ID
	return cloneOrder(ord), nil
}

func (s *Store) GetOrder(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ord, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return cloneOrder(ord), nil
}

func (s *Store) GetOrderByNumber(_ context.Context, number string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orderByNum[number]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return cloneOrder(s.orders[id]), nil
}

func (s *Store) ListOrders(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		result = append(result, cloneOrder(s.orders[id]))
	}
	return result, nil
}

func (s *Store) UpdateItemFulfillment(_ context.Context, orderID, productID, vendorID string, status order.FulfillmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[orderID]
	if !ok {
		return storage.ErrNotFound
	}
	idx := s.ownedItemIndexLocked(ord, productID, vendorID)
	if idx < 0 {
		return storage.ErrNotOwned
	}
	ord.Items[idx].FulfillmentStatus = status
	s.orders[orderID] = ord
	return nil
}

func (s *Store) UpdateItemHandover(_ context.Context, orderNumber, productID, vendorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.orderByNum[orderNumber]
	if !ok {
		return storage.ErrNotFound
	}
	ord := s.orders[id]
	idx := s.ownedItemIndexLocked(ord, productID, vendorID)
	if idx < 0 {
		return storage.ErrNotOwned
	}
	if ord.Items[idx].FulfillmentStatus != order.FulfillmentAccepted {
		return storage.ErrPrecondition
	}
	ord.Items[idx].HandoverStatus = order.HandoverHandedOver
	s.orders[id] = ord
	return nil
}

func (s *Store) UpdateItemDelivery(_ context.Context, orderID, productID string, status order.DeliveryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[orderID]
	if !ok {
		return storage.ErrNotFound
	}
	for i := range ord.Items {
		if ord.Items[i].ProductID == productID {
			ord.Items[i].DeliveryStatus = status
			s.orders[orderID] = ord
			return nil
		}
	}
	return storage.ErrNotFound
}

// ownedItemIndexLocked returns the index of the first item matching productID
// whose product resolves to vendorID, or -1.
func (s *Store) ownedItemIndexLocked(ord order.Order, productID, vendorID string) int {
	p, ok := s.products[productID]
	if !ok || p.VendorID != vendorID {
		return -1
	}
	for i := range ord.Items {
		if ord.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// ProductStore implementation -------------------------------------------------

func (s *Store) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.products[p.ID]; exists {
		return product.Product{}, storage.ErrDuplicate
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return product.Product{}, storage.ErrNotFound
	}
	// Ownership is immutable once set.
	p.VendorID = existing.VendorID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return product.Product{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProductsByVendor(_ context.Context, vendorID string) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []product.Product
	for _, p := range s.products {
		if p.VendorID == vendorID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) CountProductsByVendor(_ context.Context, vendorID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.products {
		if p.VendorID == vendorID {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteProduct(_ context.Context, id, vendorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return storage.ErrNotFound
	}
	if p.VendorID != vendorID {
		return storage.ErrNotOwned
	}
	delete(s.products, id)
	return nil
}

func (s *Store) OwnersOf(_ context.Context, productIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[string]string, len(productIDs))
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			owners[id] = p.VendorID
		}
	}
	return owners, nil
}

func (s *Store) FindProducts(_ context.Context, productIDs []string) (map[string]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]product.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

// VendorStore implementation --------------------------------------------------

func (s *Store) CreateVendor(_ context.Context, v vendor.Vendor) (vendor.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vendors {
		if strings.EqualFold(existing.BusinessEmail, v.BusinessEmail) || existing.BusinessPhone == v.BusinessPhone {
			return vendor.Vendor{}, storage.ErrDuplicate
		}
	}
	if v.ID == "" {
		v.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.ProductCategories = cloneStrings(v.ProductCategories)
	s.vendors[v.ID] = v
	return cloneVendor(v), nil
}

func (s *Store) UpdateVendor(_ context.Context, v vendor.Vendor) (vendor.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.vendors[v.ID]
	if !ok {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()
	v.ProductCategories = cloneStrings(v.ProductCategories)
	s.vendors[v.ID] = v
	return cloneVendor(v), nil
}

func (s *Store) GetVendor(_ context.Context, id string) (vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	return cloneVendor(v), nil
}

func (s *Store) GetVendorByEmail(_ context.Context, email string) (vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.vendors {
		if strings.EqualFold(v.BusinessEmail, email) {
			return cloneVendor(v), nil
		}
	}
	return vendor.Vendor{}, storage.ErrNotFound
}

func (s *Store) FindVendorByContact(_ context.Context, email, phone string) (vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.vendors {
		if (email != "" && strings.EqualFold(v.BusinessEmail, email)) || (phone != "" && v.BusinessPhone == phone) {
			return cloneVendor(v), nil
		}
	}
	return vendor.Vendor{}, storage.ErrNotFound
}

// helpers ---------------------------------------------------------------------

func cloneOrder(ord order.Order) order.Order {
	items := make([]order.LineItem, len(ord.Items))
	copy(items, ord.Items)
	ord.Items = items
	return ord
}

func cloneVendor(v vendor.Vendor) vendor.Vendor {
	v.ProductCategories = cloneStrings(v.ProductCategories)
	return v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
