package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/domain"
)

// Accessor entrega handles de GORM atados a un tenant. Es la única forma en que los
// repositorios obtienen acceso a tablas particionadas.
type Accessor struct {
	db *gorm.DB
}

// NewAccessor envuelve el handle compartido (o una transacción).
func NewAccessor(db *gorm.DB) *Accessor {
	return &Accessor{db: db}
}

// For devuelve un handle cuyas operaciones quedan restringidas a tenantID.
func (a *Accessor) For(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrNoTenantContext
	}
	return a.db.WithContext(WithTenant(ctx, tenantID)), nil
}

// System handle sin filtro de tenant: búsqueda de credenciales, registro de tenants y migraciones.
func (a *Accessor) System(ctx context.Context) *gorm.DB {
	return a.db.WithContext(WithSystem(ctx))
}
