// Package redisstore keeps payments as Redis hashes.
//
// Every write is a single Lua script, so each Create and status change is
// applied atomically on the server. Durability follows the Redis persistence
// settings (AOF with appendfsync always for crash consistency).
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

const paymentKeyPrefix = "payment:"

// Hash fields.
const (
	fieldRideID    = "ride_id"
	fieldAmount    = "amount"
	fieldStatus    = "status"
	fieldCreatedAt = "created_at"
)

// createScript writes the hash only if the key does not exist yet.
// Returns 1 on insert and 0 when the key is taken.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'ride_id', ARGV[1], 'amount', ARGV[2], 'status', ARGV[3], 'created_at', ARGV[4])
return 1
`)

// setStatusScript sets the status of an existing hash. ARGV[2], when not
// empty, is the status the hash must currently hold.
// Returns 1 on update, 0 when the key is missing, -1 on status mismatch.
var setStatusScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if ARGV[2] ~= '' and redis.call('HGET', KEYS[1], 'status') ~= ARGV[2] then
	return -1
end
redis.call('HSET', KEYS[1], 'status', ARGV[1])
return 1
`)

// PaymentRepository is a Redis implementation of repository.PaymentRepository.
type PaymentRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository creates a new Redis payment repository.
func NewPaymentRepository(client *redis.Client) *PaymentRepository {
	return &PaymentRepository{client: client, now: time.Now}
}

func paymentKey(id string) string {
	return paymentKeyPrefix + id
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	createdAt := r.now().UTC()

	inserted, err := createScript.Run(ctx, r.client, []string{paymentKey(payment.ID)},
		payment.RideID,
		payment.Amount.String(),
		string(payment.Status),
		createdAt.Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return repository.ErrDuplicateID
	}

	payment.CreatedAt = createdAt
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	fields, err := r.client.HGetAll(ctx, paymentKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}

	return decodePayment(id, fields)
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	return r.setStatus(ctx, id, status, "")
}

// TransitionStatus moves a payment from one status to another atomically.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	return r.setStatus(ctx, id, to, from)
}

func (r *PaymentRepository) setStatus(ctx context.Context, id string, to, from domain.PaymentStatus) error {
	result, err := setStatusScript.Run(ctx, r.client, []string{paymentKey(id)}, string(to), string(from)).Int()
	if err != nil {
		return err
	}

	switch result {
	case 1:
		return nil
	case 0:
		return repository.ErrNotFound
	default:
		return repository.ErrStatusMismatch
	}
}

func decodePayment(id string, fields map[string]string) (*domain.Payment, error) {
	amount, err := decimal.NewFromString(fields[fieldAmount])
	if err != nil {
		return nil, fmt.Errorf("decode amount of payment %s: %w", id, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("decode created_at of payment %s: %w", id, err)
	}

	status := domain.PaymentStatus(fields[fieldStatus])
	if !status.Valid() {
		return nil, errors.New("unknown status " + string(status) + " for payment " + id)
	}

	return &domain.Payment{
		ID:        id,
		RideID:    fields[fieldRideID],
		Amount:    amount,
		Status:    status,
		CreatedAt: createdAt,
	}, nil
}
