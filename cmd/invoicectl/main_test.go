package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// sqliteOpener comparte una base en memoria entre ejecuciones del mismo test.
func sqliteOpener(t *testing.T) opener {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	keep, err := postgres.Open(sqlite.Open(dsn), nil, nil)
	require.NoError(t, err)
	sqlDB, err := keep.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return func(context.Context, *logger.Logger) (*gorm.DB, func(), error) {
		return keep, func() {}, nil
	}
}

func run(t *testing.T, open opener, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(open, &out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestMigrate(t *testing.T) {
	open := sqliteOpener(t)

	out := run(t, open, "migrate", "status")
	assert.Contains(t, out, "pendiente")

	out = run(t, open, "migrate", "up")
	assert.Contains(t, out, "aplicada")

	out = run(t, open, "migrate", "up")
	assert.Contains(t, out, "sin migraciones pendientes")

	out = run(t, open, "migrate", "status")
	assert.NotContains(t, out, "pendiente")

	out = run(t, open, "migrate", "down")
	assert.Contains(t, out, "revertida")
	assert.Contains(t, run(t, open, "migrate", "status"), "pendiente")
}

func TestSeedEsIdempotente(t *testing.T) {
	open := sqliteOpener(t)
	run(t, open, "migrate", "up")

	first := run(t, open, "seed")
	assert.Contains(t, first, `"Local Tenant" (localhost)`)
	second := run(t, open, "seed")
	assert.Equal(t, first, second, "el upsert conserva el mismo id")

	db, _, err := open(context.Background(), nil)
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Table("tenants").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestComandoDesconocido(t *testing.T) {
	cmd := newRootCommand(sqliteOpener(t), &bytes.Buffer{})
	cmd.SetArgs([]string{"borrar-todo"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
