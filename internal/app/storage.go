package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/ledger/memstore"
	"github.com/stitchbook/stitchbook/internal/ledger/pgstore"
	"github.com/stitchbook/stitchbook/internal/platform/db"
	"github.com/stitchbook/stitchbook/internal/users"
)

// Storage is the opened persistence layer selected by STORAGE_DRIVER.
type Storage struct {
	Ledger ledger.Repository
	Users  users.RepositoryPort
	Pool   *pgxpool.Pool
}

// OpenStorage connects the configured driver. The postgres driver applies the
// embedded migrations when DB_AUTO_MIGRATE is on.
func OpenStorage(ctx context.Context, cfg *Config, logger *slog.Logger) (*Storage, error) {
	if cfg.StorageDriver == StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return &Storage{
			Ledger: memstore.New(cfg.InitialBalance()),
			Users:  users.NewMemoryRepository(),
		}, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Storage{
		Ledger: pgstore.New(pool, cfg.InitialBalance()),
		Users:  users.NewRepository(pool),
		Pool:   pool,
	}, nil
}

// Ping checks the database, if any.
func (s *Storage) Ping(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return nil
	}
	return s.Pool.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}
