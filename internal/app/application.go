// Package app ties the domain services together.
package app

import (
	orderssvc "github.com/drnkly/vendor-service/internal/app/services/orders"
	payoutssvc "github.com/drnkly/vendor-service/internal/app/services/payouts"
	productssvc "github.com/drnkly/vendor-service/internal/app/services/products"
	vendorssvc "github.com/drnkly/vendor-service/internal/app/services/vendors"
	"github.com/drnkly/vendor-service/internal/app/storage"
	"github.com/drnkly/vendor-service/internal/app/storage/memory"
	"github.com/drnkly/vendor-service/internal/otp"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Orders   storage.OrderStore
	Products storage.ProductStore
	Vendors  storage.VendorStore
}

// Application exposes the wired domain services.
type Application struct {
	log *logger.Logger

	Orders   *orderssvc.Service
	Payouts  *payoutssvc.Service
	Products *productssvc.Service
	Vendors  *vendorssvc.Service
}

// New builds a fully initialised application with the provided dependencies.
func New(stores Stores, codes otp.Store, sender vendorssvc.Sender, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Orders == nil {
		stores.Orders = mem
	}
	if stores.Products == nil {
		stores.Products = mem
	}
	if stores.Vendors == nil {
		stores.Vendors = mem
	}
	if codes == nil {
		codes = otp.NewMemoryStore()
	}

	return &Application{
		log:      log,
		Orders:   orderssvc.New(stores.Orders, stores.Products, log),
		Payouts:  payoutssvc.New(stores.Orders, stores.Products, log),
		Products: productssvc.New(stores.Products, log),
		Vendors:  vendorssvc.New(stores.Vendors, codes, sender, log),
	}
}
