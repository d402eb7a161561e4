package order

import (
	"fmt"
	"math/rand"
)

// NewNumber generates a human-readable order number of the form ORDnnnnnn.
// Stores enforce uniqueness and regenerate on collision.
func NewNumber() string {
	return fmt.Sprintf("ORD%06d", 100000+rand.Intn(900000))
}
