package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// Asegura que TenantRepo implementa repository.TenantRepository.
var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo registro de tenants sobre PostgreSQL. La tabla tenants no está particionada:
// todas las operaciones usan el handle de sistema.
type TenantRepo struct {
	acc *Accessor
}

// NewTenantRepository construye el adaptador. Pasar el handle compartido o una transacción.
func NewTenantRepository(db *gorm.DB) *TenantRepo {
	return &TenantRepo{acc: NewAccessor(db)}
}

// Create persiste un nuevo tenant. Subdominio repetido: domain.ErrSubdomainTaken.
func (r *TenantRepo) Create(ctx context.Context, tenant *entity.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	row := toTenantModel(tenant)
	if err := r.acc.System(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSubdomainTaken
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// GetByID obtiene un tenant por ID; (nil, nil) si no existe.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.findOne(ctx, "id = ?", id)
}

// GetBySubdomain obtiene un tenant por subdominio exacto; (nil, nil) si no existe.
func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error) {
	return r.findOne(ctx, "subdomain = ?", subdomain)
}

// UpsertBySubdomain crea el tenant o actualiza su nombre si el subdominio ya existe.
// Al terminar, tenant refleja la fila guardada (incluido el ID existente).
func (r *TenantRepo) UpsertBySubdomain(ctx context.Context, tenant *entity.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	row := toTenantModel(tenant)
	err := r.acc.System(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subdomain"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}

	saved, err := r.GetBySubdomain(ctx, tenant.Subdomain)
	if err != nil {
		return err
	}
	if saved == nil {
		return fmt.Errorf("upsert tenant %q: fila no encontrada", tenant.Subdomain)
	}
	*tenant = *saved
	return nil
}

func (r *TenantRepo) findOne(ctx context.Context, cond string, arg string) (*entity.Tenant, error) {
	var row tenantModel
	err := r.acc.System(ctx).Where(cond, arg).Take(&row).Error
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return row.toEntity(), nil
}
