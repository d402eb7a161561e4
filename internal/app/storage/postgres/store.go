// Package postgres implements the storage interfaces backed by PostgreSQL.
//
// Line item transitions are single-statement conditional updates joined
// against the products table, so the ownership check and the write happen
// atomically in the database. There is no fetch-mutate-save round trip and
// concurrent transitions on different items of one order cannot lose
// updates.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/product"
	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
	"github.com/drnkly/vendor-service/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.OrderStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.VendorStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// --- OrderStore -------------------------------------------------------------

func (s *Store) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	if ord.ID == "" {
		ord.ID = uuid.NewString()
	}
	if ord.CreatedAt.IsZero() {
		ord.CreatedAt = time.Now().UTC()
	}
	for i := range ord.Items {
		if ord.Items[i].FulfillmentStatus == "" {
			ord.Items[i].FulfillmentStatus = order.FulfillmentPending
		}
		if ord.Items[i].HandoverStatus == "" {
			ord.Items[i].HandoverStatus = order.HandoverPending
		}
		if ord.Items[i].DeliveryStatus == "" {
			ord.Items[i].DeliveryStatus = order.DeliveryPending
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, err
	}
	defer tx.Rollback()

	// Order numbers are random six-digit strings; regenerate on collision.
	for attempt := 0; ; attempt++ {
		if ord.OrderNumber == "" {
			ord.OrderNumber = order.NewNumber()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, order_number, user_id, full_name, phone, street, city, state, pincode, total_amount, payment_status, transaction_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, ord.ID, ord.OrderNumber, ord.UserID,
			ord.DeliveryAddress.FullName, ord.DeliveryAddress.Phone, ord.DeliveryAddress.Street,
			ord.DeliveryAddress.City, ord.DeliveryAddress.State, ord.DeliveryAddress.Pincode,
			ord.TotalAmount, ord.PaymentStatus, ord.TransactionID, ord.CreatedAt)
		if err == nil {
			break
		}
		if isUniqueViolation(err) && attempt < 3 {
			ord.OrderNumber = ""
			continue
		}
		if isUniqueViolation(err) {
			return order.Order{}, storage.ErrDuplicate
		}
		return order.Order{}, err
	}

	for i, item := range ord.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, image, price, quantity, fulfillment_status, handover_status, delivery_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, ord.ID, i, item.ProductID, item.Name, item.Image, item.Price, item.Quantity,
			item.FulfillmentStatus, item.HandoverStatus, item.DeliveryStatus)
		if err != nil {
			return order.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	return s.getOrderBy(ctx, "id", id)
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (order.Order, error) {
	return s.getOrderBy(ctx, "order_number", number)
}

func (s *Store) getOrderBy(ctx context.Context, column, value string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, full_name, phone, street, city, state, pincode, total_amount, payment_status, transaction_id, created_at
		FROM orders
		WHERE `+column+` = $1
	`, value)

	ord, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, storage.ErrNotFound
		}
		return order.Order{}, err
	}

	items, err := s.loadItems(ctx, []string{ord.ID})
	if err != nil {
		return order.Order{}, err
	}
	ord.Items = items[ord.ID]
	return ord, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, user_id, full_name, phone, street, city, state, pincode, total_amount, payment_status, transaction_id, created_at
		FROM orders
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []order.Order
		ids    []string
	)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ord)
		ids = append(ids, ord.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (order.Order, error) {
	var ord order.Order
	err := row.Scan(&ord.ID, &ord.OrderNumber, &ord.UserID,
		&ord.DeliveryAddress.FullName, &ord.DeliveryAddress.Phone, &ord.DeliveryAddress.Street,
		&ord.DeliveryAddress.City, &ord.DeliveryAddress.State, &ord.DeliveryAddress.Pincode,
		&ord.TotalAmount, &ord.PaymentStatus, &ord.TransactionID, &ord.CreatedAt)
	return ord, err
}

// loadItems fetches items for a set of orders in one query, keyed by order
// id, preserving each order's item sequence.
func (s *Store) loadItems(ctx context.Context, orderIDs []string) (map[string][]order.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, image, price, quantity, fulfillment_status, handover_status, delivery_status
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]order.LineItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			item    order.LineItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Image, &item.Price, &item.Quantity,
			&item.FulfillmentStatus, &item.HandoverStatus, &item.DeliveryStatus); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

func (s *Store) UpdateItemFulfillment(ctx context.Context, orderID, productID, vendorID string, status order.FulfillmentStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE order_items oi
		SET fulfillment_status = $4
		FROM products p
		WHERE oi.order_id = $1
		  AND oi.product_id = $2
		  AND p.id = oi.product_id
		  AND p.vendor_id = $3
	`, orderID, productID, vendorID, status)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing order from an ownership miss.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrNotOwned
}

func (s *Store) UpdateItemHandover(ctx context.Context, orderNumber, productID, vendorID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE order_items oi
		SET handover_status = $4
		FROM orders o, products p
		WHERE o.order_number = $1
		  AND oi.order_id = o.id
		  AND oi.product_id = $2
		  AND p.id = oi.product_id
		  AND p.vendor_id = $3
		  AND oi.fulfillment_status = $5
	`, orderNumber, productID, vendorID, order.HandoverHandedOver, order.FulfillmentAccepted)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}

	var orderID string
	err = s.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE order_number = $1`, orderNumber).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}

	var owned bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = $1 AND oi.product_id = $2 AND p.vendor_id = $3
		)
	`, orderID, productID, vendorID).Scan(&owned)
	if err != nil {
		return err
	}
	if !owned {
		return storage.ErrNotOwned
	}
	// Owned but not updated: the item has not been accepted yet.
	return storage.ErrPrecondition
}

func (s *Store) UpdateItemDelivery(ctx context.Context, orderID, productID string, status order.DeliveryStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE order_items
		SET delivery_status = $3
		WHERE order_id = $1 AND product_id = $2
	`, orderID, productID, status)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ProductStore -----------------------------------------------------------

func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, vendor_id, name, brand, category, alcohol_content, price, stock, volume, description, image, liquor_type, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.VendorID, p.Name, p.Brand, p.Category, p.AlcoholContent, p.Price, p.Stock, p.Volume,
		p.Description, p.Image, p.LiquorType, p.InStock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return product.Product{}, storage.ErrDuplicate
		}
		return product.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	existing, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return product.Product{}, err
	}

	// Ownership is immutable once set.
	p.VendorID = existing.VendorID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, brand = $3, category = $4, alcohol_content = $5, price = $6, stock = $7,
		    volume = $8, description = $9, image = $10, liquor_type = $11, in_stock = $12, updated_at = $13
		WHERE id = $1
	`, p.ID, p.Name, p.Brand, p.Category, p.AlcoholContent, p.Price, p.Stock,
		p.Volume, p.Description, p.Image, p.LiquorType, p.InStock, p.UpdatedAt)
	if err != nil {
		return product.Product{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return product.Product{}, storage.ErrNotFound
	}
	return p, nil
}

const productColumns = `id, vendor_id, name, brand, category, alcohol_content, price, stock, volume, description, image, liquor_type, in_stock, created_at, updated_at`

func scanProduct(row rowScanner) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Brand, &p.Category, &p.AlcoholContent, &p.Price,
		&p.Stock, &p.Volume, &p.Description, &p.Image, &p.LiquorType, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id string) (product.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, storage.ErrNotFound
	}
	return p, err
}

func (s *Store) ListProductsByVendor(ctx context.Context, vendorID string) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE vendor_id = $1 ORDER BY created_at`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) CountProductsByVendor(ctx context.Context, vendorID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE vendor_id = $1`, vendorID).Scan(&count)
	return count, err
}

func (s *Store) DeleteProduct(ctx context.Context, id, vendorID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND vendor_id = $2`, id, vendorID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return storage.ErrNotOwned
	}
	return storage.ErrNotFound
}

func (s *Store) OwnersOf(ctx context.Context, productIDs []string) (map[string]string, error) {
	if len(productIDs) == 0 {
		return map[string]string{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, vendor_id FROM products WHERE id = ANY($1)`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]string, len(productIDs))
	for rows.Next() {
		var id, vendorID string
		if err := rows.Scan(&id, &vendorID); err != nil {
			return nil, err
		}
		owners[id] = vendorID
	}
	return owners, rows.Err()
}

func (s *Store) FindProducts(ctx context.Context, productIDs []string) (map[string]product.Product, error) {
	if len(productIDs) == 0 {
		return map[string]product.Product{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]product.Product, len(productIDs))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

// --- VendorStore ------------------------------------------------------------

const vendorColumns = `id, business_name, business_email, business_phone, password_hash, location, product_categories, verification_status, license_path, id_proof_path, created_at, updated_at`

func scanVendor(row rowScanner) (vendor.Vendor, error) {
	var (
		v             vendor.Vendor
		categoriesRaw []byte
	)
	err := row.Scan(&v.ID, &v.BusinessName, &v.BusinessEmail, &v.BusinessPhone, &v.PasswordHash,
		&v.Location, &categoriesRaw, &v.VerificationStatus, &v.LicensePath, &v.IDProofPath,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return vendor.Vendor{}, err
	}
	if len(categoriesRaw) > 0 {
		_ = json.Unmarshal(categoriesRaw, &v.ProductCategories)
	}
	return v, nil
}

func (s *Store) CreateVendor(ctx context.Context, v vendor.Vendor) (vendor.Vendor, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	categoriesJSON, err := json.Marshal(v.ProductCategories)
	if err != nil {
		return vendor.Vendor{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vendors (id, business_name, business_email, business_phone, password_hash, location, product_categories, verification_status, license_path, id_proof_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, v.ID, v.BusinessName, v.BusinessEmail, v.BusinessPhone, v.PasswordHash, v.Location,
		categoriesJSON, v.VerificationStatus, v.LicensePath, v.IDProofPath, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return vendor.Vendor{}, storage.ErrDuplicate
		}
		return vendor.Vendor{}, err
	}
	return v, nil
}

func (s *Store) UpdateVendor(ctx context.Context, v vendor.Vendor) (vendor.Vendor, error) {
	existing, err := s.GetVendor(ctx, v.ID)
	if err != nil {
		return vendor.Vendor{}, err
	}

	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()

	categoriesJSON, err := json.Marshal(v.ProductCategories)
	if err != nil {
		return vendor.Vendor{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE vendors
		SET business_name = $2, business_email = $3, business_phone = $4, password_hash = $5, location = $6,
		    product_categories = $7, verification_status = $8, license_path = $9, id_proof_path = $10, updated_at = $11
		WHERE id = $1
	`, v.ID, v.BusinessName, v.BusinessEmail, v.BusinessPhone, v.PasswordHash, v.Location,
		categoriesJSON, v.VerificationStatus, v.LicensePath, v.IDProofPath, v.UpdatedAt)
	if err != nil {
		return vendor.Vendor{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) GetVendor(ctx context.Context, id string) (vendor.Vendor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	return v, err
}

func (s *Store) GetVendorByEmail(ctx context.Context, email string) (vendor.Vendor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE lower(business_email) = lower($1)`, email)
	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	return v, err
}

func (s *Store) FindVendorByContact(ctx context.Context, email, phone string) (vendor.Vendor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+vendorColumns+`
		FROM vendors
		WHERE ($1 <> '' AND lower(business_email) = lower($1))
		   OR ($2 <> '' AND business_phone = $2)
		LIMIT 1
	`, email, phone)
	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.Vendor{}, storage.ErrNotFound
	}
	return v, err
}
