package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/TatianaIng96/driverflow-service/pkg/database"
)

// Store is implemented by GormStore and MemoryStore
type Store interface {
	Load(ctx context.Context) (membership.Snapshot, error)
	Apply(ctx context.Context, c membership.Changes) error
}

// Open builds the store selected by DB_DRIVER. SQL backends are connected
// and migrated before returning.
func Open(cfg *config.Config, log *zap.Logger) (Store, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn("Using in-memory store; data is lost on restart")
		return NewMemoryStore(membership.Snapshot{}), nil
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Database connection established", zap.String("driver", cfg.DB.Driver))

	if err := database.MigrateModels(db, log, Models()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewGormStore(db, log), nil
}
