// Package payouts derives settlement rows and dashboard statistics from
// order state. Nothing here is persisted; every call recomputes from the
// order store.
package payouts

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/payout"
	"github.com/drnkly/vendor-service/internal/app/storage"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Service computes payouts and aggregate statistics per vendor.
type Service struct {
	orders   storage.OrderStore
	products storage.ProductStore
	log      *logger.Logger
}

// New constructs a payouts service.
func New(orders storage.OrderStore, products storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payouts")
	}
	return &Service{orders: orders, products: products, log: log}
}

// Commission returns the marketplace cut for a gross amount, rounded half
// away from zero to the nearest whole currency unit.
func Commission(gross float64) float64 {
	return math.Round(gross * payout.CommissionRate)
}

// ComputePayouts emits one settlement row per vendor-owned line item. A row
// is paid once the item has been accepted and handed over, pending
// otherwise. Rows are ephemeral and owned by the request.
func (s *Service) ComputePayouts(ctx context.Context, vendorID string) ([]payout.SettlementRow, error) {
	if vendorID == "" {
		return nil, apperrors.InvalidArgument("vendor id is required")
	}

	all, owners, err := s.ordersWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]payout.SettlementRow, 0)
	for _, ord := range all {
		for _, item := range ord.Items {
			if owners[item.ProductID] != vendorID {
				continue
			}
			gross := item.Price * float64(item.Quantity)
			state := payout.StatePending
			if item.FulfillmentStatus == order.FulfillmentAccepted && item.HandoverStatus == order.HandoverHandedOver {
				state = payout.StatePaid
			}
			rows = append(rows, payout.SettlementRow{
				PayoutID:     fmt.Sprintf("PAY%04d", 1000+len(rows)),
				OrderNumber:  ord.OrderNumber,
				ProductName:  item.Name,
				CustomerName: customerName(ord),
				Date:         ord.CreatedAt,
				Amount:       gross,
				Commission:   Commission(gross),
				Status:       state,
			})
		}
	}
	return rows, nil
}

// ComputeStats aggregates the vendor dashboard counters in a single pass
// over the ownership-joined items: pending items count as active orders,
// delivered items count as completed and contribute to total sales.
func (s *Service) ComputeStats(ctx context.Context, vendorID string) (payout.Stats, error) {
	if vendorID == "" {
		return payout.Stats{}, apperrors.InvalidArgument("vendor id is required")
	}

	all, owners, err := s.ordersWithOwners(ctx)
	if err != nil {
		return payout.Stats{}, err
	}

	var stats payout.Stats
	for _, ord := range all {
		for _, item := range ord.Items {
			if owners[item.ProductID] != vendorID {
				continue
			}
			if item.FulfillmentStatus == order.FulfillmentPending {
				stats.ActiveOrders++
			}
			if item.DeliveryStatus == order.DeliveryDelivered {
				stats.CompletedOrders++
				stats.TotalSales += item.Price * float64(item.Quantity)
			}
		}
	}

	count, err := s.products.CountProductsByVendor(ctx, vendorID)
	if err != nil {
		return payout.Stats{}, storeError(err)
	}
	stats.TotalProducts = count
	return stats, nil
}

// ordersWithOwners loads every order and resolves ownership for all distinct
// referenced products in one batch lookup.
func (s *Service) ordersWithOwners(ctx context.Context) ([]order.Order, map[string]string, error) {
	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, nil, storeError(err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, ord := range all {
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
		return nil, nil, storeError(err)
	}
	return all, owners, nil
}

func customerName(ord order.Order) string {
	if ord.DeliveryAddress.FullName != "" {
		return ord.DeliveryAddress.FullName
	}
	return "Customer"
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("record", "")
	}
	return apperrors.Transient("datastore failure", err)
}
