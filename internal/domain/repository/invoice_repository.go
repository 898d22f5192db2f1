package repository

import (
	"context"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// Campos por los que se puede ordenar el listado de facturas (nombre de la API).
const (
	InvoiceSortNumber      = "number"
	InvoiceSortInvoiceDate = "invoiceDate"
	InvoiceSortDueDate     = "dueDate"
	InvoiceSortStatus      = "status"
	InvoiceSortSenderName  = "senderName"
	InvoiceSortClientName  = "clientName"
	InvoiceSortSubtotal    = "subtotal"
	InvoiceSortTaxAmount   = "taxAmount"
	InvoiceSortTotalAmount = "totalAmount"
	InvoiceSortCreatedAt   = "createdAt"
)

// InvoiceListParams parámetros del listado paginado.
// Page empieza en 1; SortDesc ordena de mayor a menor.
type InvoiceListParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

// Límites de paginación.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize aplica los valores por defecto: página mínima 1, tamaño 10, máximo 100.
func (p InvoiceListParams) Normalize() InvoiceListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// InvoicePage una página de facturas y el total del tenant.
type InvoicePage struct {
	Invoices []*entity.Invoice
	Total    int64
}

// InvoiceRepository define el puerto de persistencia para Invoice.
// Todas las operaciones quedan restringidas al tenantID recibido; una factura de otro tenant
// se comporta como inexistente (domain.ErrNotFound).
type InvoiceRepository interface {
	Create(ctx context.Context, tenantID string, invoice *entity.Invoice) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Invoice, error)
	// Update reemplaza todos los campos editables.
	Update(ctx context.Context, tenantID string, invoice *entity.Invoice) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, params InvoiceListParams) (*InvoicePage, error)
}
