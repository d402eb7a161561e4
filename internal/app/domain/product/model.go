package product

import "time"

// LiquorType classifies a product by alcohol content.
type LiquorType string

const (
	LiquorHard LiquorType = "Hard Liquor"
	LiquorMild LiquorType = "Mild Liquor"
)

// Classify returns the liquor type for an alcohol percentage.
func Classify(alcoholContent float64) LiquorType {
	if alcoholContent >= 36 {
		return LiquorHard
	}
	return LiquorMild
}

// Product is a catalog entry. VendorID is set at creation and never changes;
// it is the sole authorization boundary for line item mutation.
type Product struct {
	ID             string
	VendorID       string
	Name           string
	Brand          string
	Category       string
	AlcoholContent float64
	Price          float64
	Stock          int
	Volume         float64
	Description    string
	Image          string
	LiquorType     LiquorType
	InStock        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
