package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ridepay/internal/domain"
	"ridepay/internal/logger"
	"ridepay/internal/repository"
)

// CapturePolicy decides how a capture of an already captured payment is answered.
type CapturePolicy string

const (
	// CapturePolicyStrict rejects a repeated capture with ErrAlreadyCaptured.
	CapturePolicyStrict CapturePolicy = "strict"
	// CapturePolicyIdempotent answers a repeated capture with the captured payment.
	CapturePolicyIdempotent CapturePolicy = "idempotent"
)

// ParseCapturePolicy converts a configuration value into a CapturePolicy.
func ParseCapturePolicy(s string) (CapturePolicy, error) {
	switch p := CapturePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CapturePolicyStrict, CapturePolicyIdempotent:
		return p, nil
	case "":
		return CapturePolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown capture policy %q", s)
	}
}

// Operation names reported to the OperationObserver.
const (
	OperationAuthorize = "authorize"
	OperationCapture   = "capture"
)

// OperationObserver receives the outcome of every Authorize and Capture call.
type OperationObserver interface {
	ObserveOperation(operation, outcome string)
}

// NewPaymentID generates a payment ID of the form P-<uuid>.
func NewPaymentID() string {
	return domain.PaymentIDPrefix + uuid.NewString()
}

// PaymentService handles the authorize/capture lifecycle of payments.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	validate    *validator.Validate
	logger      *zap.Logger
	newID       func() string
	policy      CapturePolicy
	observer    OperationObserver
}

// Option configures a PaymentService.
type Option func(*PaymentService)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(s *PaymentService) { s.logger = l }
}

// WithIDGenerator replaces NewPaymentID.
func WithIDGenerator(fn func() string) Option {
	return func(s *PaymentService) { s.newID = fn }
}

// WithCapturePolicy sets how repeated captures are answered.
func WithCapturePolicy(p CapturePolicy) Option {
	return func(s *PaymentService) { s.policy = p }
}

// WithObserver reports operation outcomes to o.
func WithObserver(o OperationObserver) Option {
	return func(s *PaymentService) { s.observer = o }
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, opts ...Option) *PaymentService {
	s := &PaymentService{
		paymentRepo: paymentRepo,
		validate:    newValidator(),
		logger:      zap.NewNop(),
		newID:       NewPaymentID,
		policy:      CapturePolicyStrict,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeRequest contains the parameters for authorizing a payment.
type AuthorizeRequest struct {
	RideID string          `json:"ride_id" validate:"required,max=128"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// CaptureRequest contains the parameters for capturing a payment.
type CaptureRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=64"`
}

// Authorize validates the request and stores a new payment in AUTHORIZED state.
// Nothing is written when validation fails.
func (s *PaymentService) Authorize(ctx context.Context, req AuthorizeRequest) (*domain.Payment, error) {
	req.RideID = strings.TrimSpace(req.RideID)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, s.fail(ctx, OperationAuthorize, err, zap.String("ride_id", req.RideID))
	}

	payment := &domain.Payment{
		ID:     s.newID(),
		RideID: req.RideID,
		Amount: req.Amount,
		Status: domain.PaymentStatusAuthorized,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, s.fail(ctx, OperationAuthorize, storageError("create payment", err),
			zap.String("ride_id", req.RideID),
			zap.String("payment_id", payment.ID),
		)
	}

	s.succeed(ctx, OperationAuthorize, "payment authorized",
		zap.String("payment_id", payment.ID),
		zap.String("ride_id", payment.RideID),
		zap.String("amount", payment.Amount.String()),
	)

	return payment, nil
}

// Capture moves an AUTHORIZED payment to CAPTURED. The transition is a single
// conditional write, so among concurrent captures of one payment exactly one
// performs it.
func (s *PaymentService) Capture(ctx context.Context, req CaptureRequest) (*domain.Payment, error) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, s.fail(ctx, OperationCapture, err)
	}

	idField := zap.String("payment_id", req.PaymentID)

	payment, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.fail(ctx, OperationCapture, ErrPaymentNotFound, idField)
		}
		return nil, s.fail(ctx, OperationCapture, storageError("get payment", err), idField)
	}

	if payment.IsCaptured() {
		return s.alreadyCaptured(ctx, payment)
	}

	err = s.paymentRepo.TransitionStatus(ctx, payment.ID, domain.PaymentStatusAuthorized, domain.PaymentStatusCaptured)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStatusMismatch):
		// Another capture won the race.
		payment.Status = domain.PaymentStatusCaptured
		return s.alreadyCaptured(ctx, payment)
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.fail(ctx, OperationCapture, ErrPaymentNotFound, idField)
	default:
		return nil, s.fail(ctx, OperationCapture, storageError("capture payment", err), idField)
	}

	payment.Status = domain.PaymentStatusCaptured

	s.succeed(ctx, OperationCapture, "payment captured",
		idField,
		zap.String("ride_id", payment.RideID),
	)

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, storageError("get payment", err)
	}

	return payment, nil
}

func (s *PaymentService) alreadyCaptured(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if s.policy == CapturePolicyIdempotent {
		s.succeed(ctx, OperationCapture, "payment already captured, returning it",
			zap.String("payment_id", payment.ID),
		)
		return payment, nil
	}

	return nil, s.fail(ctx, OperationCapture, ErrAlreadyCaptured, zap.String("payment_id", payment.ID))
}

func (s *PaymentService) succeed(ctx context.Context, op, msg string, fields ...zap.Field) {
	s.observe(op, "success")
	logger.Info(ctx, s.logger, msg, fields...)
}

// fail records the outcome of a rejected operation and returns err unchanged.
func (s *PaymentService) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	outcome := Outcome(err)
	s.observe(op, outcome)

	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if outcome == "storage_error" {
		logger.Error(ctx, s.logger, "payment operation failed", fields...)
	} else {
		logger.Warn(ctx, s.logger, "payment operation rejected", fields...)
	}

	return err
}

func (s *PaymentService) observe(op, outcome string) {
	if s.observer != nil {
		s.observer.ObserveOperation(op, outcome)
	}
}

// Outcome classifies err into a short label: success, validation_error,
// not_found, conflict or storage_error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "storage_error"
	}
}
