// Package app assembles storage, use cases and HTTP handlers from
// configuration. Both binaries share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/usecase"
)

// Storage is one backend's set of repositories.
type Storage struct {
	Driver     string
	TxManager  usecase.TransactionManager
	Accounts   usecase.AccountRepository
	Categories usecase.CategoryRepository
	Entries    usecase.EntryRepository
	Snapshots  usecase.SnapshotRepository

	// Pool is nil for the memory driver.
	Pool *pgxpool.Pool
}

// Close releases the storage connections.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// NewMemoryStorage returns a Storage backed by a process-local store.
func NewMemoryStorage() *Storage {
	store := memory.New()
	return &Storage{
		Driver:     config.StorageMemory,
		TxManager:  store,
		Accounts:   memory.NewAccountRepository(store),
		Categories: memory.NewCategoryRepository(store),
		Entries:    memory.NewEntryRepository(store),
		Snapshots:  memory.NewSnapshotRepository(store),
	}
}

// NewPostgresStorage returns a Storage backed by pool.
func NewPostgresStorage(pool *pgxpool.Pool, opts ...postgresRepo.TxOption) *Storage {
	return &Storage{
		Driver:     config.StoragePostgres,
		TxManager:  postgresRepo.NewTxManager(pool, opts...),
		Accounts:   postgresRepo.NewAccountRepository(pool),
		Categories: postgresRepo.NewCategoryRepository(pool),
		Entries:    postgresRepo.NewEntryRepository(pool),
		Snapshots:  postgresRepo.NewSnapshotRepository(pool),
		Pool:       pool,
	}
}

// OpenStorage connects the backend named by cfg.StorageDriver, running
// migrations first when cfg.AutoMigrate is set.
func OpenStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return NewMemoryStorage(), nil
	}

	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("connected to postgres")
	return NewPostgresStorage(pool, postgresRepo.WithIsolation(pgx.TxIsoLevel(cfg.DatabaseIsolation))), nil
}

// Services holds every use case wired to one Storage.
type Services struct {
	Accounts       *usecase.AccountUseCase
	Balances       *usecase.BalanceUseCase
	Entries        *usecase.EntryUseCase
	Series         *usecase.SeriesUseCase
	Snapshots      *usecase.SnapshotUseCase
	Reconciliation *usecase.ReconciliationUseCase
}

// NewServices builds the use cases over storage.
func NewServices(storage *Storage, logger zerolog.Logger, m *metrics.Metrics, clock func() time.Time) *Services {
	opts := []usecase.Option{usecase.WithLogger(logger), usecase.WithMetrics(m)}
	if clock != nil {
		opts = append(opts, usecase.WithClock(clock))
	}

	idGen := postgresRepo.NewULIDGenerator()
	balances := usecase.NewBalanceUseCase(storage.Accounts, storage.Entries, opts...)
	snapshots := usecase.NewSnapshotUseCase(storage.TxManager, storage.Accounts, storage.Entries, storage.Snapshots, opts...)

	return &Services{
		Accounts:       usecase.NewAccountUseCase(storage.TxManager, storage.Accounts, idGen, opts...),
		Balances:       balances,
		Entries:        usecase.NewEntryUseCase(storage.TxManager, storage.Accounts, storage.Categories, storage.Entries, idGen, opts...),
		Series:         usecase.NewSeriesUseCase(storage.TxManager, storage.Accounts, storage.Categories, storage.Entries, opts...),
		Snapshots:      snapshots,
		Reconciliation: usecase.NewReconciliationUseCase(storage.Accounts, storage.Snapshots, balances, snapshots, opts...),
	}
}
