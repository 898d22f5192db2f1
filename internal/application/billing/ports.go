package billing

import (
	"context"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// InvoicePDFGenerator puerto de salida que renderiza una factura en PDF.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, tenant *entity.Tenant, invoice *entity.Invoice) ([]byte, error)
}

// TenantLookup lectura del registro de tenants para el encabezado del documento.
type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
}

// InvoiceXMLBuilder puerto que serializa la factura como documento UBL.
type InvoiceXMLBuilder interface {
	Build(tenant *entity.Tenant, invoice *entity.Invoice) ([]byte, error)
}

// DigestFunc calcula el digest del documento exportado.
type DigestFunc func(doc []byte) (string, error)
