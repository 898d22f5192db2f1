package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// Ensure TxRunner implements auth.SignupTxRunner.
var _ auth.SignupTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción.
type TxRunner struct {
	db *gorm.DB
}

// NewTxRunner construye el runner con el handle compartido.
func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunSignup inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si fn devuelve error no queda ni el tenant ni el usuario.
func (r *TxRunner) RunSignup(ctx context.Context, fn func(
	tenantRepo repository.TenantRepository,
	userRepo repository.UserRepository,
) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewTenantRepository(tx), NewUserRepository(tx))
	})
}
