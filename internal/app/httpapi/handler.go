// Package httpapi exposes the vendor REST API.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/drnkly/vendor-service/internal/app"
	"github.com/drnkly/vendor-service/internal/app/domain/order"
	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
	"github.com/drnkly/vendor-service/internal/app/metrics"
	productssvc "github.com/drnkly/vendor-service/internal/app/services/products"
	vendorssvc "github.com/drnkly/vendor-service/internal/app/services/vendors"
	"github.com/drnkly/vendor-service/internal/config"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/internal/middleware"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app      *app.Application
	secret   []byte
	tokenTTL time.Duration
	log      *logger.Logger
}

// NewHandler returns the service router.
func NewHandler(application *app.Application, authCfg config.AuthConfig, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{
		app:      application,
		secret:   []byte(authCfg.JWTSecret),
		tokenTTL: authCfg.TokenTTL,
		log:      log,
	}
	auth := middleware.NewAuthMiddleware(h.secret, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/vendors/register", h.registerVendor)
		r.Post("/vendors/login", h.loginVendor)
		r.Post("/vendors/otp/send", h.sendOTP)
		r.Post("/vendors/otp/verify", h.verifyOTP)
		r.Put("/vendors/verification", h.updateVerification)

		r.Group(func(r chi.Router) {
			r.Use(auth.Handler)

			r.Post("/products", h.addProduct)
			r.Get("/products", h.listProducts)
			r.Put("/products/{productID}/stock", h.updateStock)
			r.Delete("/products/{productID}", h.deleteProduct)

			r.Get("/orders", h.listOrders)
			r.Put("/orders/{orderID}/status", h.setItemStatus)
			r.Get("/orders/ready-for-pickup", h.readyForPickup)
			r.Put("/orders/handover", h.markHandedOver)

			r.Get("/payouts", h.listPayouts)
			r.Get("/stats", h.vendorStats)
		})
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- vendors ----------------------------------------------------------------

func (h *handler) registerVendor(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BusinessName       string   `json:"businessName"`
		BusinessEmail      string   `json:"businessEmail"`
		BusinessPhone      string   `json:"businessPhone"`
		Password           string   `json:"password"`
		Location           string   `json:"location"`
		ProductCategories  []string `json:"productCategories"`
		VerificationMethod string   `json:"verificationMethod"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}

	v, err := h.app.Vendors.Register(r.Context(), vendorssvc.RegisterInput{
		BusinessName:       payload.BusinessName,
		BusinessEmail:      payload.BusinessEmail,
		BusinessPhone:      payload.BusinessPhone,
		Password:           payload.Password,
		Location:           payload.Location,
		ProductCategories:  payload.ProductCategories,
		VerificationMethod: payload.VerificationMethod,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"vendorId":           v.ID,
		"verificationStatus": v.VerificationStatus,
	})
}

func (h *handler) loginVendor(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}

	v, err := h.app.Vendors.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := middleware.IssueToken(h.secret, v.ID, h.tokenTTL)
	if err != nil {
		writeError(w, apperrors.Internal("issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":              token,
		"vendorId":           v.ID,
		"verificationStatus": v.VerificationStatus,
	})
}

func (h *handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}
	if err := h.app.Vendors.SendVerificationCode(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}
	metrics.ObserveVerification("issued")
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
}

func (h *handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Code  string `json:"otp"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}
	ok, err := h.app.Vendors.VerifyCode(r.Context(), payload.Email, payload.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		metrics.ObserveVerification("rejected")
		writeError(w, apperrors.InvalidArgument("invalid or expired OTP"))
		return
	}
	metrics.ObserveVerification("verified")
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully"})
}

func (h *handler) updateVerification(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		VendorID string `json:"vendorId"`
		Status   string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}
	v, err := h.app.Vendors.UpdateVerificationStatus(r.Context(), payload.VendorID, vendor.VerificationStatus(payload.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":            "Verification status updated",
		"verificationStatus": v.VerificationStatus,
	})
}

// --- products ---------------------------------------------------------------

func (h *handler) addProduct(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}

	var payload struct {
		Name           string  `json:"name"`
		Brand          string  `json:"brand"`
		Category       string  `json:"category"`
		AlcoholContent float64 `json:"alcoholContent"`
		Price          float64 `json:"price"`
		Stock          int     `json:"stock"`
		Volume         float64 `json:"volume"`
		Description    string  `json:"description"`
		Image          string  `json:"image"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}

	p, err := h.app.Products.Add(r.Context(), vendorID, productssvc.AddInput{
		Name:           payload.Name,
		Brand:          payload.Brand,
		Category:       payload.Category,
		AlcoholContent: payload.AlcoholContent,
		Price:          payload.Price,
		Stock:          payload.Stock,
		Volume:         payload.Volume,
		Description:    payload.Description,
		Image:          payload.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	list, err := h.app.Products.ListByVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": list})
}

func (h *handler) updateStock(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}

	var payload struct {
		Stock int `json:"stock"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}
	p, err := h.app.Products.UpdateStock(r.Context(), chi.URLParam(r, "productID"), vendorID, payload.Stock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	if err := h.app.Products.Delete(r.Context(), chi.URLParam(r, "productID"), vendorID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- orders -----------------------------------------------------------------

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	views, err := h.app.Orders.ListForVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": views})
}

func (h *handler) setItemStatus(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}

	var payload struct {
		ProductID string `json:"productId"`
		Status    string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}

	status := order.FulfillmentStatus(payload.Status)
	if err := h.app.Orders.SetFulfillmentStatus(r.Context(), chi.URLParam(r, "orderID"), payload.ProductID, vendorID, status); err != nil {
		writeError(w, err)
		return
	}
	metrics.ObserveItemTransition(status)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order item status updated"})
}

func (h *handler) readyForPickup(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	items, err := h.app.Orders.ListReadyForPickup(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": items})
}

func (h *handler) markHandedOver(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}

	var payload struct {
		OrderNumber string `json:"orderNumber"`
		ProductID   string `json:"productId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.InvalidArgument(err.Error()))
		return
	}
	if err := h.app.Orders.MarkHandedOver(r.Context(), payload.OrderNumber, payload.ProductID, vendorID); err != nil {
		writeError(w, err)
		return
	}
	metrics.ObserveHandover()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Handover marked successfully"})
}

// --- settlement -------------------------------------------------------------

func (h *handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	rows, err := h.app.Payouts.ComputePayouts(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payouts": rows})
}

func (h *handler) vendorStats(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.VendorID(r.Context())
	if !ok {
		writeError(w, apperrors.Unauthorized("missing vendor identity"))
		return
	}
	stats, err := h.app.Payouts.ComputeStats(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- helpers ----------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil {
		svcErr = apperrors.Internal("internal error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(svcErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": svcErr.Message,
		"code":  svcErr.Code,
	})
}
