package app

import (
	"context"
	"fmt"
	"io"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridepay/internal/config"
	"ridepay/internal/repository"
	"ridepay/internal/repository/memory"
	"ridepay/internal/repository/postgres"
	"ridepay/internal/repository/redisstore"
)

// nopCloser closes nothing; the Redis client is owned by the caller.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenPaymentStore opens the payment store selected by cfg.Store.Driver.
// redisClient is only used by the redis driver. The returned closer releases
// the store handle.
func OpenPaymentStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, nrApp *newrelic.Application) (repository.PaymentRepository, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPaymentRepository(db), db, nil

	case config.StoreDriverRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("store driver %q needs a redis client", cfg.Store.Driver)
		}
		return redisstore.NewPaymentRepository(redisClient), nopCloser{}, nil

	case config.StoreDriverMemory:
		repo := memory.NewPaymentRepository()
		return repo, repo, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
