package repository

import (
	"context"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// Create persiste el usuario dentro del tenant indicado.
	Create(ctx context.Context, tenantID string, user *entity.User) error
	// FindByEmail busca por email en todos los tenants (solo para verificar credenciales).
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, tenantID, id string) (*entity.User, error)
}
