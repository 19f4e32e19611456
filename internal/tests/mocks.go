package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/redis"
	"ridepay/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
// TransitionStatus is a compare-and-set under the mutex, like the real stores.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount     int32
	GetByIDCallCount    int32
	TransitionCallCount int32

	// Error injection
	CreateError     error
	GetByIDError    error
	TransitionError error

	// BeforeTransition, when set, runs before every TransitionStatus.
	BeforeTransition func()
}

var _ repository.PaymentRepository = (*MockPaymentRepository)(nil)

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *payment
	m.payments[payment.ID] = &stored
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[payment.ID]; exists {
		return repository.ErrDuplicateID
	}
	payment.CreatedAt = time.Now().UTC()
	stored := *payment
	m.payments[payment.ID] = &stored
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

func (m *MockPaymentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.BeforeTransition != nil {
		m.BeforeTransition()
	}
	if m.TransitionError != nil {
		return m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if payment.Status != from {
		return repository.ErrStatusMismatch
	}
	payment.Status = to
	return nil
}

// GetPayment returns the stored payment without going through the interface.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK RESPONSE STORE
// ──────────────────────────────────────────────

// MockResponseStore is a mock implementation of ResponseStoreInterface.
type MockResponseStore struct {
	mu        sync.Mutex
	responses map[string]*redis.CachedResponse

	SetCallCount int32

	// Error injection
	GetError error
}

var _ redis.ResponseStoreInterface = (*MockResponseStore)(nil)

// NewMockResponseStore creates a new mock response store.
func NewMockResponseStore() *MockResponseStore {
	return &MockResponseStore{
		responses: make(map[string]*redis.CachedResponse),
	}
}

func (m *MockResponseStore) GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[key], nil
}

func (m *MockResponseStore) SetResponse(ctx context.Context, key string, resp *redis.CachedResponse, ttl time.Duration) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = resp
	return nil
}

// Count returns the number of stored responses.
func (m *MockResponseStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireCallCount int32
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

// Hold marks key as locked, as if another request owned it.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = true
}

// IsLocked checks if a key is locked.
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

// ──────────────────────────────────────────────
// MOCK OPERATION OBSERVER
// ──────────────────────────────────────────────

// MockObserver records operation outcomes.
type MockObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMockObserver creates a new mock observer.
func NewMockObserver() *MockObserver {
	return &MockObserver{counts: make(map[string]int)}
}

func (m *MockObserver) ObserveOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[operation+"/"+outcome]++
}

// Count returns how often operation finished with outcome.
func (m *MockObserver) Count(operation, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[operation+"/"+outcome]
}
