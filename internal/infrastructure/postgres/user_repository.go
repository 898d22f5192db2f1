package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	acc *Accessor
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(db *gorm.DB) *UserRepo {
	return &UserRepo{acc: NewAccessor(db)}
}

// Create persiste un nuevo usuario dentro del tenant. Email repetido: domain.ErrEmailAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, tenantID string, user *entity.User) error {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.Email = entity.NormalizeEmail(user.Email)
	user.CreatedAt, user.UpdatedAt = now, now

	row := toUserModel(user)
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.TenantID = row.TenantID
	return nil
}

// FindByEmail busca por email en todos los tenants; (nil, nil) si no existe.
// Es la única lectura de usuarios sin tenant: el login todavía no conoce el tenant.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userModel
	err := r.acc.System(ctx).Where("email = ?", entity.NormalizeEmail(email)).Take(&row).Error
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return row.toEntity(), nil
}

// GetByID obtiene un usuario del tenant; domain.ErrUserNotFound si no existe o es de otro tenant.
func (r *UserRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var row userModel
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.toEntity(), nil
}
