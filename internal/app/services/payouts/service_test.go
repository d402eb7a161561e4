package payouts

import (
	"context"
	"testing"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/payout"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/storage/memory"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
)

func TestCommission(t *testing.T) {
	cases := []struct {
		gross float64
		want  float64
	}{
		{199, 20},
		{245, 25},
		{250, 25},
		{0, 0},
		{100, 10},
		{1, 0},
		{5, 1},
	}
	for _, tc := range cases {
		if got := Commission(tc.gross); got != tc.want {
			t.Errorf("Commission(%v) = %v, want %v", tc.gross, got, tc.want)
		}
	}
}

func seedStore(t *testing.T) (*memory.Store, product.Product, product.Product, order.Order) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	p1, err := store.CreateProduct(ctx, product.Product{VendorID: "v1", Name: "Old Monk", Price: 199})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	p2, err := store.CreateProduct(ctx, product.Product{VendorID: "v2", Name: "Kingfisher", Price: 50})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	ord, err := store.CreateOrder(ctx, order.Order{
		UserID:          "user-1",
		DeliveryAddress: order.DeliveryAddress{FullName: "Asha", Street: "MG Road", City: "Pune"},
		Items: []order.LineItem{
			{ProductID: p1.ID, Name: "Old Monk", Price: 199, Quantity: 1},
			{ProductID: p2.ID, Name: "Kingfisher", Price: 50, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return store, p1, p2, ord
}

func TestComputePayouts(t *testing.T) {
	store, p1, _, ord := seedStore(t)
	svc := New(store, store, nil)
	ctx := context.Background()

	rows, err := svc.ComputePayouts(ctx, "v1")
	if err != nil {
		t.Fatalf("compute payouts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for v1, got %d", len(rows))
	}
	row := rows[0]
	if row.Amount != 199 || row.Commission != 20 {
		t.Fatalf("amount/commission = %v/%v, want 199/20", row.Amount, row.Commission)
	}
	if row.Status != payout.StatePending {
		t.Fatalf("status = %s, want pending before handover", row.Status)
	}
	if row.PayoutID != "PAY1000" {
		t.Fatalf("payout id = %s", row.PayoutID)
	}
	if row.OrderNumber != ord.OrderNumber || row.CustomerName != "Asha" {
		t.Fatalf("unexpected row %#v", row)
	}

	// Accepted alone is still pending; accepted plus handed over is paid.
	if err := store.UpdateItemFulfillment(ctx, ord.ID, p1.ID, "v1", order.FulfillmentAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	rows, err = svc.ComputePayouts(ctx, "v1")
	if err != nil {
		t.Fatalf("compute payouts: %v", err)
	}
	if rows[0].Status != payout.StatePending {
		t.Fatalf("accepted without handover should remain pending, got %s", rows[0].Status)
	}

	if err := store.UpdateItemHandover(ctx, ord.OrderNumber, p1.ID, "v1"); err != nil {
		t.Fatalf("handover: %v", err)
	}
	rows, err = svc.ComputePayouts(ctx, "v1")
	if err != nil {
		t.Fatalf("compute payouts: %v", err)
	}
	if rows[0].Status != payout.StatePaid {
		t.Fatalf("status = %s, want paid", rows[0].Status)
	}
}

func TestComputePayouts_VendorWithNoItems(t *testing.T) {
	store, _, _, _ := seedStore(t)
	svc := New(store, store, nil)

	rows, err := svc.ComputePayouts(context.Background(), "v3")
	if err != nil {
		t.Fatalf("compute payouts: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}

	if _, err := svc.ComputePayouts(context.Background(), ""); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("expected InvalidArgument for empty vendor, got %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	store, p1, _, ord := seedStore(t)
	svc := New(store, store, nil)
	ctx := context.Background()

	// Pending item counts as an active order.
	stats, err := svc.ComputeStats(ctx, "v1")
	if err != nil {
		t.Fatalf("compute stats: %v", err)
	}
	want := payout.Stats{ActiveOrders: 1, TotalProducts: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	// Delivered item counts as completed and adds to sales.
	if err := store.UpdateItemFulfillment(ctx, ord.ID, p1.ID, "v1", order.FulfillmentAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := store.UpdateItemDelivery(ctx, ord.ID, p1.ID, order.DeliveryDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	stats, err = svc.ComputeStats(ctx, "v1")
	if err != nil {
		t.Fatalf("compute stats: %v", err)
	}
	want = payout.Stats{CompletedOrders: 1, TotalSales: 199, TotalProducts: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	// The other vendor's counters are untouched by v1's transitions.
	stats2, err := svc.ComputeStats(ctx, "v2")
	if err != nil {
		t.Fatalf("compute stats v2: %v", err)
	}
	want2 := payout.Stats{ActiveOrders: 1, TotalProducts: 1}
	if stats2 != want2 {
		t.Fatalf("v2 stats = %+v, want %+v", stats2, want2)
	}
}

func TestComputeStats_ZeroVendor(t *testing.T) {
	store, _, _, _ := seedStore(t)
	svc := New(store, store, nil)

	stats, err := svc.ComputeStats(context.Background(), "v3")
	if err != nil {
		t.Fatalf("compute stats: %v", err)
	}
	if stats != (payout.Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
