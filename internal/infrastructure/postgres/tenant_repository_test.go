package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres/postgrestest"
)

func TestTenantRepo_CreateYBuscar(t *testing.T) {
	repo := postgres.NewTenantRepository(postgrestest.Open(t, nil))
	ctx := context.Background()

	acme := &entity.Tenant{Name: "Acme", Subdomain: "acme"}
	require.NoError(t, repo.Create(ctx, acme))
	require.NotEmpty(t, acme.ID)

	got, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, acme.ID, got.ID)
	assert.Equal(t, "Acme", got.Name)

	byID, err := repo.GetByID(ctx, acme.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "acme", byID.Subdomain)

	missing, err := repo.GetBySubdomain(ctx, "globex")
	require.NoError(t, err)
	assert.Nil(t, missing, "subdominio desconocido no es un error")
}

func TestTenantRepo_SubdominioDuplicado(t *testing.T) {
	repo := postgres.NewTenantRepository(postgrestest.Open(t, nil))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Tenant{Name: "Acme", Subdomain: "acme"}))
	err := repo.Create(ctx, &entity.Tenant{Name: "Otra", Subdomain: "acme"})
	assert.ErrorIs(t, err, domain.ErrSubdomainTaken)
}

func TestTenantRepo_UpsertBySubdomain(t *testing.T) {
	repo := postgres.NewTenantRepository(postgrestest.Open(t, nil))
	ctx := context.Background()

	first := &entity.Tenant{Name: "Local", Subdomain: "localhost"}
	require.NoError(t, repo.UpsertBySubdomain(ctx, first))

	second := &entity.Tenant{Name: "Local Tenant", Subdomain: "localhost"}
	require.NoError(t, repo.UpsertBySubdomain(ctx, second))
	assert.Equal(t, first.ID, second.ID, "el upsert conserva el tenant existente")
	assert.Equal(t, "Local Tenant", second.Name)
}
