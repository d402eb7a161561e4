// Package vendors handles vendor accounts: registration, login and the
// email verification code flow.
package vendors

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/drnkly/vendor-service/internal/app/domain/vendor"
	"github.com/drnkly/vendor-service/internal/app/storage"
	apperrors "github.com/drnkly/vendor-service/internal/errors"
	"github.com/drnkly/vendor-service/internal/otp"
	"github.com/drnkly/vendor-service/pkg/logger"
)

// Sender delivers a verification code to a recipient. The mail transport
// itself lives outside this service.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogSender logs codes instead of sending them. Useful for development.
type LogSender struct {
	Log *logger.Logger
}

// SendVerificationCode logs the code.
func (s LogSender) SendVerificationCode(_ context.Context, email, code string) error {
	log := s.Log
	if log == nil {
		log = logger.NewDefault("mailer")
	}
	log.WithField("email", email).WithField("code", code).Info("verification code issued")
	return nil
}

// Service manages vendor accounts.
type Service struct {
	store  storage.VendorStore
	codes  otp.Store
	sender Sender
	log    *logger.Logger
}

// New constructs a vendors service.
func New(store storage.VendorStore, codes otp.Store, sender Sender, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("vendors")
	}
	if sender == nil {
		sender = LogSender{Log: log}
	}
	return &Service{store: store, codes: codes, sender: sender, log: log}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	BusinessName       string
	BusinessEmail      string
	BusinessPhone      string
	Password           string
	Location           string
	ProductCategories  []string
	VerificationMethod string
}

// Register creates a vendor account. A registration verified through the
// OTP flow is marked verified immediately; anything else waits for admin
// approval.
func (s *Service) Register(ctx context.Context, in RegisterInput) (vendor.Vendor, error) {
	in.BusinessEmail = strings.TrimSpace(strings.ToLower(in.BusinessEmail))
	in.BusinessPhone = strings.TrimSpace(in.BusinessPhone)

	if in.BusinessName == "" || in.BusinessEmail == "" || in.BusinessPhone == "" {
		return vendor.Vendor{}, apperrors.InvalidArgument("business name, email and phone are required")
	}
	if len(in.Password) < 6 {
		return vendor.Vendor{}, apperrors.InvalidArgument("password must be at least 6 characters")
	}

	if _, err := s.store.FindVendorByContact(ctx, in.BusinessEmail, in.BusinessPhone); err == nil {
		return vendor.Vendor{}, apperrors.Conflict("vendor already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return vendor.Vendor{}, apperrors.Transient("datastore failure", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return vendor.Vendor{}, apperrors.Internal("hash password", err)
	}

	status := vendor.VerificationPending
	if in.VerificationMethod == "otp" {
		status = vendor.VerificationVerified
	}

	v := vendor.Vendor{
		BusinessName:       in.BusinessName,
		BusinessEmail:      in.BusinessEmail,
		BusinessPhone:      in.BusinessPhone,
		PasswordHash:       string(hash),
		Location:           in.Location,
		ProductCategories:  in.ProductCategories,
		VerificationStatus: status,
	}
	created, err := s.store.CreateVendor(ctx, v)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return vendor.Vendor{}, apperrors.Conflict("vendor already exists")
		}
		return vendor.Vendor{}, apperrors.Transient("datastore failure", err)
	}

	s.log.WithField("vendor_id", created.ID).
		WithField("verification_status", created.VerificationStatus).
		Info("vendor registered")
	return created, nil
}

// Login checks credentials and returns the vendor on success.
func (s *Service) Login(ctx context.Context, email, password string) (vendor.Vendor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return vendor.Vendor{}, apperrors.InvalidArgument("email and password are required")
	}

	v, err := s.store.GetVendorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same outcome as a bad password; do not reveal which.
			return vendor.Vendor{}, apperrors.Unauthorized("invalid credentials")
		}
		return vendor.Vendor{}, apperrors.Transient("datastore failure", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(password)) != nil {
		return vendor.Vendor{}, apperrors.Unauthorized("invalid credentials")
	}
	return v, nil
}

// UpdateVerificationStatus sets a vendor's verification outcome.
func (s *Service) UpdateVerificationStatus(ctx context.Context, vendorID string, status vendor.VerificationStatus) (vendor.Vendor, error) {
	switch status {
	case vendor.VerificationPending, vendor.VerificationVerified, vendor.VerificationRejected:
	default:
		return vendor.Vendor{}, apperrors.InvalidArgument("invalid verification status")
	}

	v, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return vendor.Vendor{}, apperrors.NotFound("vendor", vendorID)
		}
		return vendor.Vendor{}, apperrors.Transient("datastore failure", err)
	}

	v.VerificationStatus = status
	updated, err := s.store.UpdateVendor(ctx, v)
	if err != nil {
		return vendor.Vendor{}, apperrors.Transient("datastore failure", err)
	}
	s.log.WithField("vendor_id", vendorID).
		WithField("status", status).
		Info("verification status updated")
	return updated, nil
}

// SendVerificationCode issues a code for the email and hands it to the
// sender. A newly issued code invalidates any prior one for the address.
func (s *Service) SendVerificationCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return apperrors.InvalidArgument("email is required")
	}

	code, err := s.codes.Issue(ctx, email)
	if err != nil {
		return apperrors.Transient("issue verification code", err)
	}
	if err := s.sender.SendVerificationCode(ctx, email, code); err != nil {
		return apperrors.Transient("send verification code", err)
	}
	return nil
}

// VerifyCode checks a code for the email. A matching code is consumed and
// cannot be used again.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || code == "" {
		return false, apperrors.InvalidArgument("email and code are required")
	}

	ok, err := s.codes.Verify(ctx, email, code)
	if err != nil {
		return false, apperrors.Transient("verify code", err)
	}
	return ok, nil
}
