package repository

import (
	"context"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// TenantRepository registro de tenants (DIP). La tabla de tenants no está particionada por tenant.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	// GetByID y GetBySubdomain devuelven (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error)
	// UpsertBySubdomain crea o actualiza el nombre del tenant con ese subdominio (seed).
	UpsertBySubdomain(ctx context.Context, tenant *entity.Tenant) error
}
