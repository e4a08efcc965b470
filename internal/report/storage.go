package report

import (
	"context"
	"fmt"
	"os"

	"qcreport/internal/infra/persistence/postgres"
	"qcreport/internal/infra/persistence/sqlite"
	"qcreport/pkg/domain"
)

// StorageDriver identifies a concrete persistence implementation.
type StorageDriver string

const (
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageConfigFromEnv reads the backend selection from the environment.
// Defaults to sqlite when unset.
//
//	QCREPORT_STORAGE_DRIVER: sqlite|postgres (default sqlite)
//	QCREPORT_SQLITE_PATH: path to sqlite file (default ./qcr_database.db)
//	QCREPORT_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv() StorageConfig {
	driver := StorageDriver(os.Getenv("QCREPORT_STORAGE_DRIVER"))
	if driver == "" {
		driver = StorageSQLite
	}
	return StorageConfig{
		Driver:      driver,
		SQLitePath:  os.Getenv("QCREPORT_SQLITE_PATH"),
		PostgresDSN: os.Getenv("QCREPORT_POSTGRES_DSN"),
	}
}

// OpenStore builds the store the config names.
func OpenStore(ctx context.Context, cfg StorageConfig) (domain.Store, error) {
	switch cfg.Driver {
	case StorageSQLite, "":
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
