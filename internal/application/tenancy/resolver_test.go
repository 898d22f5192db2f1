package tenancy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoicing-api/internal/application/tenancy"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

type fakeTenants struct {
	bySub map[string]*entity.Tenant
}

func (f *fakeTenants) Create(context.Context, *entity.Tenant) error { return nil }
func (f *fakeTenants) UpsertBySubdomain(context.Context, *entity.Tenant) error {
	return nil
}

func (f *fakeTenants) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	for _, t := range f.bySub {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTenants) GetBySubdomain(_ context.Context, sub string) (*entity.Tenant, error) {
	return f.bySub[sub], nil
}

func TestSubdomainOf(t *testing.T) {
	cases := []struct {
		host, base, want string
	}{
		{"acme.ebilling.app", "ebilling.app", "acme"},
		{"acme.ebilling.app:8080", "ebilling.app", "acme"},
		{"Acme.ebilling.app", "ebilling.app", "Acme"},
		{"ebilling.app", "ebilling.app", ""},
		{"www.ebilling.app", "ebilling.app", ""},
		{"localhost:3000", "", "localhost"},
		{"127.0.0.1:8080", "", ""},
		{"[::1]:8080", "", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, tenancy.SubdomainOf(c.host, c.base), c.host)
	}
}

func TestResolver_FromHost(t *testing.T) {
	acme := &entity.Tenant{ID: "t-acme", Subdomain: "acme"}
	r := tenancy.NewResolver(&fakeTenants{bySub: map[string]*entity.Tenant{"acme": acme}}, "ebilling.app")
	ctx := context.Background()

	got, err := r.FromHost(ctx, "acme.ebilling.app")
	require.NoError(t, err)
	assert.Equal(t, acme, got)

	got, err = r.FromHost(ctx, "globex.ebilling.app")
	require.NoError(t, err)
	assert.Nil(t, got, "subdominio desconocido: petición pública")

	got, err = r.FromHost(ctx, "ACME.ebilling.app")
	require.NoError(t, err)
	assert.Nil(t, got, "la búsqueda es exacta")
}

func TestResolver_FromSession(t *testing.T) {
	acme := &entity.Tenant{ID: "t-acme", Subdomain: "acme"}
	r := tenancy.NewResolver(&fakeTenants{bySub: map[string]*entity.Tenant{"acme": acme}}, "")

	got, err := r.FromSession(context.Background(), "t-acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)

	_, err = r.FromSession(context.Background(), "t-borrado")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = r.FromSession(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGate(t *testing.T) {
	acme := &entity.Tenant{ID: "t-acme"}
	assert.NoError(t, tenancy.Gate(acme, "t-acme"))
	assert.ErrorIs(t, tenancy.Gate(acme, "t-globex"), domain.ErrUnauthorized)
	assert.ErrorIs(t, tenancy.Gate(acme, ""), domain.ErrUnauthorized)
	assert.ErrorIs(t, tenancy.Gate(nil, "t-acme"), domain.ErrNoTenantContext)
}
