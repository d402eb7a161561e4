package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	mw := NewAuthMiddleware(testSecret, nil)
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := VendorID(r.Context())
		if !ok {
			t.Fatalf("vendor id missing from context")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	h, seen := protected(t)

	token, err := IssueToken(testSecret, "vendor-42", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	if *seen != "vendor-42" {
		t.Fatalf("vendor id = %q, want vendor-42", *seen)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	h, _ := protected(t)

	expired, err := IssueToken(testSecret, "vendor-42", -time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	wrongKey, err := IssueToken([]byte("other-secret"), "vendor-42", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "vendor-42"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			h.ServeHTTP(resp, req)
			if resp.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.Code)
			}
		})
	}
}

func TestAuthMiddleware_RejectsWrongSigningMethod(t *testing.T) {
	h, _ := protected(t)

	// An unsigned token must never validate, whatever its claims say.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{VendorID: "vendor-42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
