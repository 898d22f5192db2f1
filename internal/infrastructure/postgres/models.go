package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// Modelos de persistencia (GORM). El dominio no conoce las etiquetas de la base de datos.

type tenantModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Subdomain string    `gorm:"size:63;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (tenantModel) TableName() string { return "tenants" }

type userModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	TenantID     string    `gorm:"size:36;not null;index"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	// Solo para la FK users.tenant_id → tenants.id; nunca se carga.
	Tenant *tenantModel `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (userModel) TableName() string { return "users" }

type invoiceModel struct {
	ID            string          `gorm:"primaryKey;size:36"`
	TenantID      string          `gorm:"size:36;not null;index"`
	Number        string          `gorm:"size:64;not null"`
	InvoiceDate   time.Time       `gorm:"type:date;not null"`
	DueDate       time.Time       `gorm:"type:date;not null"`
	Status        string          `gorm:"size:16;not null"`
	SenderName    string          `gorm:"size:255;not null"`
	SenderAddress string          `gorm:"size:500;not null"`
	SenderEmail   string          `gorm:"size:255"`
	SenderPhone   string          `gorm:"size:64"`
	ClientName    string          `gorm:"size:255;not null"`
	ClientAddress string          `gorm:"size:500;not null"`
	ClientEmail   string          `gorm:"size:255"`
	ClientPhone   string          `gorm:"size:64"`
	LineItems     string          `gorm:"type:text;not null"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`

	Tenant *tenantModel `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (invoiceModel) TableName() string { return "invoices" }

// ── Conversión ───────────────────────────────────────────────────────────────

func toTenantModel(t *entity.Tenant) tenantModel {
	return tenantModel{ID: t.ID, Name: t.Name, Subdomain: t.Subdomain, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

func (m tenantModel) toEntity() *entity.Tenant {
	return &entity.Tenant{ID: m.ID, Name: m.Name, Subdomain: m.Subdomain, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func toUserModel(u *entity.User) userModel {
	return userModel{
		ID: u.ID, TenantID: u.TenantID, Email: u.Email, PasswordHash: u.PasswordHash,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (m userModel) toEntity() *entity.User {
	return &entity.User{
		ID: m.ID, TenantID: m.TenantID, Email: m.Email, PasswordHash: m.PasswordHash,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toInvoiceModel(inv *entity.Invoice) (invoiceModel, error) {
	items := inv.LineItems
	if items == nil {
		items = []entity.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return invoiceModel{}, fmt.Errorf("serializar líneas: %w", err)
	}
	return invoiceModel{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		Number:        inv.Number,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Status:        inv.Status,
		SenderName:    inv.Sender.Name,
		SenderAddress: inv.Sender.Address,
		SenderEmail:   inv.Sender.Email,
		SenderPhone:   inv.Sender.Phone,
		ClientName:    inv.Client.Name,
		ClientAddress: inv.Client.Address,
		ClientEmail:   inv.Client.Email,
		ClientPhone:   inv.Client.Phone,
		LineItems:     string(raw),
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		CreatedAt:     inv.CreatedAt,
	}, nil
}

func (m invoiceModel) toEntity() (*entity.Invoice, error) {
	var items []entity.LineItem
	if m.LineItems != "" {
		if err := json.Unmarshal([]byte(m.LineItems), &items); err != nil {
			return nil, fmt.Errorf("leer líneas de la factura %s: %w", m.ID, err)
		}
	}
	return &entity.Invoice{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Number:      m.Number,
		InvoiceDate: m.InvoiceDate,
		DueDate:     m.DueDate,
		Status:      m.Status,
		Sender:      entity.Party{Name: m.SenderName, Address: m.SenderAddress, Email: m.SenderEmail, Phone: m.SenderPhone},
		Client:      entity.Party{Name: m.ClientName, Address: m.ClientAddress, Email: m.ClientEmail, Phone: m.ClientPhone},
		LineItems:   items,
		Subtotal:    m.Subtotal,
		TaxAmount:   m.TaxAmount,
		TotalAmount: m.TotalAmount,
		CreatedAt:   m.CreatedAt,
	}, nil
}
