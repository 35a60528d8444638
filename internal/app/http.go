package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

// HTTPDeps carries what the HTTP layer needs beyond the use cases.
type HTTPDeps struct {
	Config   *config.Config
	Storage  *Storage
	Services *Services
	// Redis enables idempotency keys when non-nil.
	Redis    *redis.Client
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewHTTPHandler builds the API router.
func NewHTTPHandler(deps HTTPDeps) http.Handler {
	cfg := deps.Config

	// Only postgres reports serialization failures and deadlocks.
	var retrier usecase.Retrier
	if deps.Storage.Driver == config.StoragePostgres {
		retrier = postgresRepo.NewRetrier(deps.Logger, deps.Metrics).WithMaxRetries(cfg.RetryMaxAttempts - 1)
	}

	refresher := handler.NewSnapshotRefresher(deps.Services.Snapshots, cfg.RecomputeOnWrite, deps.Logger, deps.Metrics)

	checks := map[string]handler.Pinger{}
	if deps.Storage.Pool != nil {
		checks["postgres"] = handler.PingFunc(deps.Storage.Pool.Ping)
	}

	var idempotencyStore usecase.IdempotencyStore
	if deps.Redis != nil {
		client := deps.Redis
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
	}

	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(deps.Services.Accounts, deps.Services.Balances, refresher, retrier),
		EntryHandler:     handler.NewEntryHandler(deps.Services.Entries, deps.Services.Series, refresher, retrier),
		ReportHandler:    handler.NewReportHandler(deps.Services.Snapshots),
		HealthHandler:    handler.NewHealthHandler(checks),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           deps.Logger,
		Metrics:          deps.Metrics,
		Gatherer:         deps.Gatherer,
	})
}
