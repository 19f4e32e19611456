package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

func authorizedPayment(t *testing.T, paymentService *service.PaymentService) *domain.Payment {
	t.Helper()
	payment, err := paymentService.Authorize(context.Background(), service.AuthorizeRequest{
		RideID: "R-1",
		Amount: decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	return payment
}

func TestCapture_AuthorizedPayment_Succeeds(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)
	payment := authorizedPayment(t, paymentService)

	captured, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.ID != payment.ID {
		t.Errorf("expected payment %s, got %s", payment.ID, captured.ID)
	}
	if captured.Status != domain.PaymentStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", captured.Status)
	}
	if stored := paymentRepo.GetPayment(payment.ID); stored.Status != domain.PaymentStatusCaptured {
		t.Errorf("expected stored status CAPTURED, got %s", stored.Status)
	}
}

func TestCapture_Twice_SecondIsConflict(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)
	payment := authorizedPayment(t, paymentService)
	ctx := context.Background()

	if _, err := paymentService.Capture(ctx, service.CaptureRequest{PaymentID: payment.ID}); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}

	_, err := paymentService.Capture(ctx, service.CaptureRequest{PaymentID: payment.ID})
	if !errors.Is(err, service.ErrAlreadyCaptured) {
		t.Errorf("expected ErrAlreadyCaptured, got %v", err)
	}
	if !errors.Is(err, service.ErrConflict) {
		t.Errorf("expected a conflict error, got %v", err)
	}
	if stored := paymentRepo.GetPayment(payment.ID); stored.Status != domain.PaymentStatusCaptured {
		t.Errorf("expected status to stay CAPTURED, got %s", stored.Status)
	}
	// The second capture never reaches the conditional write.
	if paymentRepo.TransitionCallCount != 1 {
		t.Errorf("expected 1 transition, got %d", paymentRepo.TransitionCallCount)
	}
}

func TestCapture_UnknownPayment_NotFound(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)

	_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: "P-does-not-exist"})
	if !errors.Is(err, service.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
	if paymentRepo.CountPayments() != 0 {
		t.Errorf("expected no payment to be created, got %d", paymentRepo.CountPayments())
	}
}

func TestCapture_EmptyPaymentID_Rejected(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)

	_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: "  "})
	if !errors.Is(err, service.ErrInvalidPaymentID) {
		t.Errorf("expected ErrInvalidPaymentID, got %v", err)
	}
	if paymentRepo.GetByIDCallCount != 0 {
		t.Errorf("expected no store lookup, got %d", paymentRepo.GetByIDCallCount)
	}
}

func TestCapture_ConcurrentCaptures_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	const workers = 20

	paymentRepo := NewMockPaymentRepository()
	observer := NewMockObserver()
	paymentService := service.NewPaymentService(paymentRepo, service.WithObserver(observer))
	payment := authorizedPayment(t, paymentService)

	// Hold every capture at the conditional write until all of them have read
	// the payment as AUTHORIZED.
	var ready sync.WaitGroup
	ready.Add(workers)
	release := make(chan struct{})
	paymentRepo.BeforeTransition = func() {
		ready.Done()
		<-release
	}

	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
		others    int32
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, service.ErrAlreadyCaptured):
				atomic.AddInt32(&conflicts, 1)
			default:
				atomic.AddInt32(&others, 1)
			}
		}()
	}

	ready.Wait()
	close(release)
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful capture, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts)
	}
	if others != 0 {
		t.Errorf("expected no other errors, got %d", others)
	}
	if stored := paymentRepo.GetPayment(payment.ID); stored.Status != domain.PaymentStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", stored.Status)
	}
	if got := observer.Count(service.OperationCapture, "success"); got != 1 {
		t.Errorf("expected 1 success outcome, got %d", got)
	}
	if got := observer.Count(service.OperationCapture, "conflict"); got != workers-1 {
		t.Errorf("expected %d conflict outcomes, got %d", workers-1, got)
	}
}

func TestCapture_ConcurrentCapturesWithoutBarrier_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	const workers = 50

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)
	payment := authorizedPayment(t, paymentService)

	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
	)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID})
			if err == nil {
				atomic.AddInt32(&successes, 1)
			} else if errors.Is(err, service.ErrConflict) {
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", workers-1, successes, conflicts)
	}
}

func TestCapture_IdempotentPolicy_RepeatReturnsCapturedPayment(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo,
		service.WithCapturePolicy(service.CapturePolicyIdempotent),
	)
	payment := authorizedPayment(t, paymentService)
	ctx := context.Background()

	if _, err := paymentService.Capture(ctx, service.CaptureRequest{PaymentID: payment.ID}); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}

	again, err := paymentService.Capture(ctx, service.CaptureRequest{PaymentID: payment.ID})
	if err != nil {
		t.Fatalf("expected repeat capture to succeed, got %v", err)
	}
	if again.Status != domain.PaymentStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", again.Status)
	}
	if paymentRepo.TransitionCallCount != 1 {
		t.Errorf("expected 1 transition, got %d", paymentRepo.TransitionCallCount)
	}
}

func TestCapture_StorageFailureOnRead_NoStateChange(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)
	payment := authorizedPayment(t, paymentService)

	paymentRepo.GetByIDError = errors.New("i/o timeout")

	_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID})
	if !errors.Is(err, service.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
	if stored := paymentRepo.GetPayment(payment.ID); stored.Status != domain.PaymentStatusAuthorized {
		t.Errorf("expected status to stay AUTHORIZED, got %s", stored.Status)
	}
}

func TestCapture_StorageFailureOnWrite_NoStateChange(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentService := service.NewPaymentService(paymentRepo)
	payment := authorizedPayment(t, paymentService)

	cause := errors.New("write not committed")
	paymentRepo.TransitionError = cause

	_, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID})
	if !errors.Is(err, service.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected the cause to stay reachable, got %v", err)
	}
	if stored := paymentRepo.GetPayment(payment.ID); stored.Status != domain.PaymentStatusAuthorized {
		t.Errorf("expected status to stay AUTHORIZED, got %s", stored.Status)
	}

	// Once the store recovers the capture goes through.
	paymentRepo.TransitionError = nil
	if _, err := paymentService.Capture(context.Background(), service.CaptureRequest{PaymentID: payment.ID}); err != nil {
		t.Errorf("expected capture to succeed after recovery, got %v", err)
	}
}

func TestCapture_ErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()

	kinds := []error{service.ErrValidation, service.ErrNotFound, service.ErrConflict, service.ErrStorage}
	errs := map[string]error{
		"validation": service.ErrInvalidPaymentID,
		"not_found":  service.ErrPaymentNotFound,
		"conflict":   service.ErrAlreadyCaptured,
	}

	for name, err := range errs {
		matched := 0
		for _, kind := range kinds {
			if errors.Is(err, kind) {
				matched++
			}
		}
		if matched != 1 {
			t.Errorf("%s: expected exactly one kind to match, got %d", name, matched)
		}
	}
}

func TestParseCapturePolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    service.CapturePolicy
		wantErr bool
	}{
		{"", service.CapturePolicyStrict, false},
		{"strict", service.CapturePolicyStrict, false},
		{" Idempotent ", service.CapturePolicyIdempotent, false},
		{"lenient", "", true},
	}

	for _, tc := range testCases {
		got, err := service.ParseCapturePolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseCapturePolicy(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCapturePolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
