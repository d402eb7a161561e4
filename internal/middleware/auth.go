// Package middleware provides HTTP middleware for the vendor service.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Claims are the JWT claims carried by a vendor token.
type Claims struct {
	VendorID string `json:"vendor_id"`
	jwt.RegisteredClaims
}

type contextKey string

const vendorIDKey contextKey = "vendor_id"

// VendorID returns the authenticated vendor id from the request context.
func VendorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(vendorIDKey).(string)
	return id, ok && id != ""
}

// WithVendorID returns a context carrying the vendor id. Exposed for tests.
func WithVendorID(ctx context.Context, vendorID string) context.Context {
	return context.WithValue(ctx, vendorIDKey, vendorID)
}

// IssueToken signs a vendor token valid for ttl.
func IssueToken(secret []byte, vendorID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		VendorID: vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   vendorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// AuthMiddleware validates vendor bearer tokens. The services downstream
// only ever see the resolved vendor id.
type AuthMiddleware struct {
	secret []byte
	logger *logger.Logger
}

// NewAuthMiddleware creates an authentication middleware.
func NewAuthMiddleware(secret []byte, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthMiddleware{secret: secret, logger: log}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, errors.Unauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, errors.Unauthorized("invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.logger.WithError(err).Warn("token validation failed")
			m.respondError(w, errors.Unauthorized("invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithVendorID(r.Context(), claims.VendorID)))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.VendorID == "" {
		return nil, errors.Unauthorized("invalid claims")
	}
	return claims, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, err *errors.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Message})
}
