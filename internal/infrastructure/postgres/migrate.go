package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// Migration un paso versionado del esquema.
type Migration struct {
	Version string
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

// MigrationRecord fila de schema_migrations.
type MigrationRecord struct {
	Version   string    `gorm:"primaryKey;size:32"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string { return "schema_migrations" }

// MigrationStatus estado de una migración conocida.
type MigrationStatus struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrations esquema de la aplicación, en orden.
func Migrations() []Migration {
	return []Migration{
		{
			Version: "0001",
			Name:    "create_tenants",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&tenantModel{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&tenantModel{}) },
		},
		{
			Version: "0002",
			Name:    "create_users",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&userModel{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&userModel{}) },
		},
		{
			Version: "0003",
			Name:    "create_invoices",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&invoiceModel{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&invoiceModel{}) },
		},
	}
}

// Migrator aplica y revierte migraciones registrándolas en schema_migrations.
// Corre siempre con contexto de sistema: el esquema no pertenece a ningún tenant.
type Migrator struct {
	db         *gorm.DB
	log        *logger.Logger
	migrations []Migration
}

// NewMigrator construye el migrador con las migraciones de la aplicación.
func NewMigrator(db *gorm.DB, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	ms := Migrations()
	sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
	return &Migrator{db: db, log: log.Named("migrate"), migrations: ms}
}

func (m *Migrator) session(ctx context.Context) (*gorm.DB, error) {
	db := NewAccessor(m.db).System(ctx)
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("crear schema_migrations: %w", err)
	}
	return db, nil
}

func (m *Migrator) applied(db *gorm.DB) (map[string]MigrationRecord, error) {
	var records []MigrationRecord
	if err := db.Order("version").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("leer schema_migrations: %w", err)
	}
	out := make(map[string]MigrationRecord, len(records))
	for _, r := range records {
		out[r.Version] = r
	}
	return out, nil
}

// Up aplica en orden las migraciones pendientes. Devuelve las versiones aplicadas.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	db, err := m.session(ctx)
	if err != nil {
		return nil, err
	}
	done, err := m.applied(db)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		mig := mig
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migración %s_%s: %w", mig.Version, mig.Name, err)
		}
		m.log.Info().Str("version", mig.Version).Str("name", mig.Name).Msg("migración aplicada")
		applied = append(applied, mig.Version)
	}
	return applied, nil
}

// Down revierte la última migración aplicada. Devuelve "" si no había ninguna.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	db, err := m.session(ctx)
	if err != nil {
		return "", err
	}
	done, err := m.applied(db)
	if err != nil {
		return "", err
	}
	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Down(tx); err != nil {
				return err
			}
			return tx.Where("version = ?", mig.Version).Delete(&MigrationRecord{}).Error
		})
		if err != nil {
			return "", fmt.Errorf("revertir %s_%s: %w", mig.Version, mig.Name, err)
		}
		m.log.Info().Str("version", mig.Version).Str("name", mig.Name).Msg("migración revertida")
		return mig.Version, nil
	}
	return "", nil
}

// Status lista todas las migraciones conocidas y si están aplicadas.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	db, err := m.session(ctx)
	if err != nil {
		return nil, err
	}
	done, err := m.applied(db)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if rec, ok := done[mig.Version]; ok {
			at := rec.AppliedAt
			st.Applied, st.AppliedAt = true, &at
		}
		out = append(out, st)
	}
	return out, nil
}
