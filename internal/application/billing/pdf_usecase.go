package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// PDFUseCase genera la representación en PDF de una factura del tenant.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	tenants     TenantLookup
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, tenants TenantLookup, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, tenants: tenants, generator: generator}
}

// InvoicePDF carga la factura con lectura acotada al tenant y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrInvalidInput     si falta invoiceID.
//   - domain.ErrNotFound         si la factura no existe o es de otro tenant.
//   - domain.ErrUpstream         si falla el render.
func (uc *PDFUseCase) InvoicePDF(ctx context.Context, tenantID, invoiceID string) ([]byte, string, error) {
	if invoiceID == "" {
		return nil, "", fmt.Errorf("%w: invoiceId es obligatorio", domain.ErrInvalidInput)
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	tenant, err := uc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener tenant: %w", err)
	}
	if tenant == nil {
		return nil, "", domain.ErrNotFound
	}

	pdfBytes, err := uc.generator.GenerateInvoicePDF(ctx, tenant, inv)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		return nil, "", fmt.Errorf("%w: pdf: %v", domain.ErrUpstream, err)
	}
	return pdfBytes, Filename(inv.ID), nil
}

// Filename nombre del adjunto descargado.
func Filename(invoiceID string) string {
	return "invoice-" + invoiceID + ".pdf"
}
