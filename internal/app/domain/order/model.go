package order

import "time"

// FulfillmentStatus is the vendor's decision on a line item.
type FulfillmentStatus string

// HandoverStatus records whether an item left the vendor's hands.
type HandoverStatus string

// DeliveryStatus is set by the delivery process, read for settlement.
type DeliveryStatus string

const (
	FulfillmentPending  FulfillmentStatus = "pending"
	FulfillmentAccepted FulfillmentStatus = "accepted"
	FulfillmentRejected FulfillmentStatus = "rejected"

	HandoverPending    HandoverStatus = "pending"
	HandoverHandedOver HandoverStatus = "handedOver"

	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// ValidFulfillment reports whether s is a recognised fulfillment status.
func ValidFulfillment(s FulfillmentStatus) bool {
	switch s {
	case FulfillmentPending, FulfillmentAccepted, FulfillmentRejected:
		return true
	}
	return false
}

// DeliveryAddress is the shipping destination captured at order time.
type DeliveryAddress struct {
	FullName string
	Phone    string
	Street   string
	City     string
	State    string
	Pincode  string
}

// LineItem is one product entry inside an order. Name, image and price are
// snapshots taken at order time; the parent order owns the item's lifecycle.
type LineItem struct {
	ProductID         string
	Name              string
	Image             string
	Price             float64
	Quantity          int
	FulfillmentStatus FulfillmentStatus
	HandoverStatus    HandoverStatus
	DeliveryStatus    DeliveryStatus
}

// Order is the root record for a purchase. Items keep their creation order;
// no operation reorders them.
type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Items           []LineItem
	DeliveryAddress DeliveryAddress
	TotalAmount     float64
	PaymentStatus   string
	TransactionID   string
	CreatedAt       time.Time
}

// VendorOrderItem is a line item as seen by its owning vendor, enriched with
// the current catalog name and image rather than the order-time snapshot.
type VendorOrderItem struct {
	ProductID         string            `json:"productId"`
	Name              string            `json:"name"`
	Image             string            `json:"image"`
	Price             float64           `json:"price"`
	Quantity          int               `json:"quantity"`
	FulfillmentStatus FulfillmentStatus `json:"status"`
	ProductName       string            `json:"productName"`
	ProductImage      string            `json:"productImage"`
}

// VendorOrderView is an order projected down to one vendor's items.
type VendorOrderView struct {
	OrderID         string            `json:"orderId"`
	OrderNumber     string            `json:"orderNumber"`
	CustomerID      string            `json:"customerId"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerAddress string            `json:"customerAddress"`
	PaymentStatus   string            `json:"paymentStatus"`
	TransactionID   string            `json:"transactionId"`
	TotalAmount     float64           `json:"totalAmount"`
	CreatedAt       time.Time         `json:"createdAt"`
	Items           []VendorOrderItem `json:"items"`
}

// ReadyItem is an accepted line item awaiting pickup, flattened to one row.
type ReadyItem struct {
	OrderID         string    `json:"orderId"`
	OrderNumber     string    `json:"orderNumber"`
	ProductID       string    `json:"productId"`
	Name            string    `json:"name"`
	Quantity        int       `json:"quantity"`
	Price           float64   `json:"price"`
	LineTotal       float64   `json:"totalAmount"`
	CustomerName    string    `json:"customerName"`
	CustomerAddress string    `json:"customerAddress"`
	ReadyTime       time.Time `json:"readyTime"`
}
