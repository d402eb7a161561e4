package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/storage"
)

func TestConcurrentItemUpdatesDoNotLoseWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	const vendors = 8
	items := make([]order.LineItem, vendors)
	productIDs := make([]string, vendors)
	for i := 0; i < vendors; i++ {
		p, err := store.CreateProduct(ctx, product.Product{VendorID: vendorID(i), Name: "P", Price: 10})
		if err != nil {
			t.Fatalf("create product: %v", err)
		}
		productIDs[i] = p.ID
		items[i] = order.LineItem{ProductID: p.ID, Price: 10, Quantity: 1}
	}
	ord, err := store.CreateOrder(ctx, order.Order{UserID: "u", Items: items})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Every vendor accepts its own item at the same time.
	var wg sync.WaitGroup
	for i := 0; i < vendors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.UpdateItemFulfillment(ctx, ord.ID, productIDs[i], vendorID(i), order.FulfillmentAccepted); err != nil {
				t.Errorf("vendor %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := store.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	for i, item := range got.Items {
		if item.FulfillmentStatus != order.FulfillmentAccepted {
			t.Fatalf("item %d lost its update: %s", i, item.FulfillmentStatus)
		}
	}
}

func TestUpdateItemFulfillment_Sentinels(t *testing.T) {
	store := New()
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, product.Product{VendorID: "v1", Name: "P", Price: 10})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	ord, err := store.CreateOrder(ctx, order.Order{UserID: "u", Items: []order.LineItem{{ProductID: p.ID, Price: 10, Quantity: 1}}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := store.UpdateItemFulfillment(ctx, "missing", p.ID, "v1", order.FulfillmentAccepted); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateItemFulfillment(ctx, ord.ID, p.ID, "v2", order.FulfillmentAccepted); !errors.Is(err, storage.ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}
	if err := store.UpdateItemFulfillment(ctx, ord.ID, "missing", "v1", order.FulfillmentAccepted); !errors.Is(err, storage.ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned for unknown product, got %v", err)
	}

	if err := store.UpdateItemHandover(ctx, ord.OrderNumber, p.ID, "v1"); !errors.Is(err, storage.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition before accept, got %v", err)
	}
	if err := store.UpdateItemFulfillment(ctx, ord.ID, p.ID, "v1", order.FulfillmentAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := store.UpdateItemHandover(ctx, ord.OrderNumber, p.ID, "v1"); err != nil {
		t.Fatalf("handover: %v", err)
	}
}

func TestListOrdersPreservesInsertionOrder(t *testing.T) {
	store := New()
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 5; i++ {
		ord, err := store.CreateOrder(ctx, order.Order{UserID: "u", Items: []order.LineItem{{ProductID: "p", Price: 1, Quantity: 1}}})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		numbers = append(numbers, ord.OrderNumber)
	}

	list, err := store.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(list))
	}
	for i, ord := range list {
		if ord.OrderNumber != numbers[i] {
			t.Fatalf("order %d out of sequence: %s != %s", i, ord.OrderNumber, numbers[i])
		}
	}
}

func vendorID(i int) string {
	return "vendor-" + string(rune('a'+i))
}
