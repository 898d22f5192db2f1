// Package postgrestest abre una base SQLite en memoria con el mismo GORM, plugin de tenant y
// migraciones que producción. Una base por test, con claves foráneas activas.
package postgrestest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
)

// Open devuelve un *gorm.DB migrado. onDeny puede ser nil.
func Open(t testing.TB, onDeny postgres.DenyFunc) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := postgres.Open(sqlite.Open(dsn), nil, onDeny)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Una sola conexión: la base en memoria vive mientras la conexión esté abierta.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = postgres.NewMigrator(db, nil).Up(context.Background())
	require.NoError(t, err)
	return db
}

// SeedTenants registra tenants con los IDs dados; el subdominio es el propio ID.
func SeedTenants(t testing.TB, db *gorm.DB, ids ...string) {
	t.Helper()
	repo := postgres.NewTenantRepository(db)
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &entity.Tenant{ID: id, Name: id, Subdomain: id}))
	}
}
