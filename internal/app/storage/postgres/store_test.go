package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
	"github.com/drnkly/vendor-service/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestUpdateItemFulfillment_AtomicUpdate(t *testing.T) {
	store, mock := newMockStore(t)

	// The ownership check and the write are one statement.
	mock.ExpectExec("UPDATE order_items").
		WithArgs("o1", "p1", "v1", string(order.FulfillmentAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateItemFulfillment(context.Background(), "o1", "p1", "v1", order.FulfillmentAccepted); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateItemFulfillment_MissingOrder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE order_items").
		WithArgs("o1", "p1", "v1", string(order.FulfillmentRejected)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := store.UpdateItemFulfillment(context.Background(), "o1", "p1", "v1", order.FulfillmentRejected)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateItemFulfillment_NotOwned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE order_items").
		WithArgs("o1", "p1", "v2", string(order.FulfillmentAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := store.UpdateItemFulfillment(context.Background(), "o1", "p1", "v2", order.FulfillmentAccepted)
	if !errors.Is(err, storage.ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}
}

func TestUpdateItemHandover_Precondition(t *testing.T) {
	store, mock := newMockStore(t)

	// The update only matches accepted items; an owned pending item leaves
	// zero rows and is diagnosed as a precondition failure.
	mock.ExpectExec("UPDATE order_items").
		WithArgs("ORD123456", "p1", "v1", string(order.HandoverHandedOver), string(order.FulfillmentAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM orders").
		WithArgs("ORD123456").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o1"))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("o1", "p1", "v1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := store.UpdateItemHandover(context.Background(), "ORD123456", "p1", "v1")
	if !errors.Is(err, storage.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateItemHandover_UnknownOrderNumber(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE order_items").
		WithArgs("ORD000000", "p1", "v1", string(order.HandoverHandedOver), string(order.FulfillmentAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM orders").
		WithArgs("ORD000000").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := store.UpdateItemHandover(context.Background(), "ORD000000", "p1", "v1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrder_RetriesOrderNumberCollision(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ord, err := store.CreateOrder(context.Background(), order.Order{
		UserID: "u1",
		Items:  []order.LineItem{{ProductID: "p1", Price: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if ord.OrderNumber == "" {
		t.Fatalf("order number not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := New(db)
	ctx := context.Background()

	v, err := store.CreateVendor(ctx, vendor.Vendor{
		BusinessName: "Drnkly Wines", BusinessEmail: "owner@drnkly.test", BusinessPhone: "9876543210",
		PasswordHash: "hash", VerificationStatus: vendor.VerificationVerified,
	})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	p, err := store.CreateProduct(ctx, product.Product{VendorID: v.ID, Name: "Old Monk", Price: 199, Stock: 5, InStock: true})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	ord, err := store.CreateOrder(ctx, order.Order{
		UserID: "u1",
		Items:  []order.LineItem{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := store.UpdateItemFulfillment(ctx, ord.ID, p.ID, v.ID, order.FulfillmentAccepted); err != nil {
		t.Fatalf("accept item: %v", err)
	}
	if err := store.UpdateItemHandover(ctx, ord.OrderNumber, p.ID, v.ID); err != nil {
		t.Fatalf("handover item: %v", err)
	}

	got, err := store.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Items[0].FulfillmentStatus != order.FulfillmentAccepted || got.Items[0].HandoverStatus != order.HandoverHandedOver {
		t.Fatalf("transitions not persisted: %+v", got.Items[0])
	}
}
