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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// invoiceSortColumns lista blanca: nombre de la API -> columna.
var invoiceSortColumns = map[string]string{
	repository.InvoiceSortNumber:      "number",
	repository.InvoiceSortInvoiceDate: "invoice_date",
	repository.InvoiceSortDueDate:     "due_date",
	repository.InvoiceSortStatus:      "status",
	repository.InvoiceSortSenderName:  "sender_name",
	repository.InvoiceSortClientName:  "client_name",
	repository.InvoiceSortSubtotal:    "subtotal",
	repository.InvoiceSortTaxAmount:   "tax_amount",
	repository.InvoiceSortTotalAmount: "total_amount",
	repository.InvoiceSortCreatedAt:   "created_at",
}

// SortColumn traduce un campo de orden de la API a su columna; false si no está permitido.
// Sin campo se ordena por vencimiento.
func SortColumn(field string) (string, bool) {
	if field == "" {
		field = repository.InvoiceSortDueDate
	}
	col, ok := invoiceSortColumns[field]
	return col, ok
}

// InvoiceRepo implementación de InvoiceRepository (usable con el handle compartido o una tx).
type InvoiceRepo struct {
	acc *Accessor
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepo {
	return &InvoiceRepo{acc: NewAccessor(db)}
}

// Create persiste la factura en el tenant; ID y CreatedAt se asignan si vienen vacíos.
func (r *InvoiceRepo) Create(ctx context.Context, tenantID string, invoice *entity.Invoice) error {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return err
	}
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now().UTC()
	}
	row, err := toInvoiceModel(invoice)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la factura %s ya existe", domain.ErrConflict, invoice.ID)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	invoice.TenantID = row.TenantID
	return nil
}

// GetByID obtiene una factura del tenant; domain.ErrNotFound si no existe o es de otro tenant.
func (r *InvoiceRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Invoice, error) {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var row invoiceModel
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return row.toEntity()
}

// Update reemplaza los campos editables. tenant_id, id y created_at no cambian.
func (r *InvoiceRepo) Update(ctx context.Context, tenantID string, invoice *entity.Invoice) error {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return err
	}
	row, err := toInvoiceModel(invoice)
	if err != nil {
		return err
	}
	res := db.Model(&invoiceModel{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"number":         row.Number,
		"invoice_date":   row.InvoiceDate,
		"due_date":       row.DueDate,
		"status":         row.Status,
		"sender_name":    row.SenderName,
		"sender_address": row.SenderAddress,
		"sender_email":   row.SenderEmail,
		"sender_phone":   row.SenderPhone,
		"client_name":    row.ClientName,
		"client_address": row.ClientAddress,
		"client_email":   row.ClientEmail,
		"client_phone":   row.ClientPhone,
		"line_items":     row.LineItems,
		"subtotal":       row.Subtotal,
		"tax_amount":     row.TaxAmount,
		"total_amount":   row.TotalAmount,
	})
	if res.Error != nil {
		return fmt.Errorf("update invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra la factura del tenant; domain.ErrNotFound si no había nada que borrar.
func (r *InvoiceRepo) Delete(ctx context.Context, tenantID, id string) error {
	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&invoiceModel{})
	if res.Error != nil {
		return fmt.Errorf("delete invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve una página ordenada y el total de facturas del tenant.
// Una página fuera de rango devuelve lista vacía con el total correcto.
func (r *InvoiceRepo) List(ctx context.Context, tenantID string, params repository.InvoiceListParams) (*repository.InvoicePage, error) {
	col, ok := SortColumn(params.SortBy)
	if !ok {
		return nil, fmt.Errorf("%w: no se puede ordenar por %q", domain.ErrInvalidInput, params.SortBy)
	}
	params = params.Normalize()

	db, err := r.acc.For(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	q := db.Model(&invoiceModel{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	var rows []invoiceModel
	err = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: params.SortDesc},
		{Column: clause.Column{Name: "id"}, Desc: params.SortDesc},
	}}).
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	out := make([]*entity.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return &repository.InvoicePage{Invoices: out, Total: total}, nil
}
