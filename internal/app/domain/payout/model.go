package payout

import "time"

// State is the derived settlement state of one line item.
type State string

const (
	StatePaid    State = "paid"
	StatePending State = "pending"
)

// CommissionRate is the marketplace cut applied to every settlement row.
const CommissionRate = 0.10

// SettlementRow is a per-item payout computation. Rows are never persisted;
// every call recomputes them from order state.
type SettlementRow struct {
	PayoutID     string    `json:"payoutId"`
	OrderNumber  string    `json:"orderNumber"`
	ProductName  string    `json:"productName"`
	CustomerName string    `json:"customerName"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
	Commission   float64   `json:"commission"`
	Status       State     `json:"status"`
}

// Stats are the aggregate counters shown on a vendor dashboard.
type Stats struct {
	ActiveOrders    int     `json:"activeOrders"`
	TotalProducts   int     `json:"totalProducts"`
	CompletedOrders int     `json:"completedOrders"`
	TotalSales      float64 `json:"totalSales"`
}
