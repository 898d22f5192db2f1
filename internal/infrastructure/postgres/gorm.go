package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// slowQueryThreshold a partir de este tiempo una consulta se registra como lenta.
const slowQueryThreshold = 200 * time.Millisecond

// NewGorm abre GORM sobre el pool pgx compartido (un único handle para toda la app).
func NewGorm(pool *pgxpool.Pool, log *logger.Logger, onDeny DenyFunc) (*gorm.DB, error) {
	dialector := gormpg.New(gormpg.Config{Conn: stdlib.OpenDBFromPool(pool)})
	return Open(dialector, log, onDeny)
}

// Open configura GORM sobre cualquier dialecto e instala el plugin de tenant.
// Los tests lo usan con SQLite en memoria.
func Open(dialector gorm.Dialector, log *logger.Logger, onDeny DenyFunc) (*gorm.DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log, slowQueryThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("abrir gorm: %w", err)
	}
	if err := db.Use(NewTenantScope(onDeny, &userModel{}, &invoiceModel{})); err != nil {
		return nil, fmt.Errorf("registrar tenant scope: %w", err)
	}
	return db, nil
}
