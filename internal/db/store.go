package db

import (
	"context"
	"fmt"
	"log"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/migrations"
	"acty-backend-go/internal/store"
)

// OpenStore returns the store selected by cfg.StoreBackend together with a
// func that releases it.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, func() error, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Printf("[store] using in-memory backend, data is lost on exit")
		return store.NewMemory(), func() error { return nil }, nil
	}
	database, err := Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migrations.Apply(ctx, database, cfg.MigrationsDir); err != nil {
			_ = database.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
	}
	return store.NewPostgres(database), database.Close, nil
}
