package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// UBLDocument factura exportada con su digest canónico.
type UBLDocument struct {
	XML      []byte
	Digest   string
	Filename string
}

// UBLUseCase exporta una factura del tenant como UBL 2.1.
type UBLUseCase struct {
	invoiceRepo repository.InvoiceRepository
	tenants     TenantLookup
	builder     InvoiceXMLBuilder
	digest      DigestFunc
}

// NewUBLUseCase construye el caso de uso.
func NewUBLUseCase(invoiceRepo repository.InvoiceRepository, tenants TenantLookup, builder InvoiceXMLBuilder, digest DigestFunc) *UBLUseCase {
	return &UBLUseCase{invoiceRepo: invoiceRepo, tenants: tenants, builder: builder, digest: digest}
}

// Export carga la factura con lectura acotada al tenant y la serializa.
func (uc *UBLUseCase) Export(ctx context.Context, tenantID, invoiceID string) (*UBLDocument, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	tenant, err := uc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("ubl: obtener tenant: %w", err)
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	doc, err := uc.builder.Build(tenant, inv)
	if err != nil {
		return nil, err
	}
	sum, err := uc.digest(doc)
	if err != nil {
		return nil, err
	}
	return &UBLDocument{XML: doc, Digest: sum, Filename: "invoice-" + inv.ID + ".xml"}, nil
}
