package invoicing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// FromExtracted arma un borrador de factura a partir del resultado OCR para que el usuario lo confirme.
// No valida ni persiste: los campos que el modelo no encontró quedan vacíos.
func FromExtracted(x *entity.ExtractedInvoice) dto.InvoiceRequest {
	var req dto.InvoiceRequest
	if x == nil {
		return req
	}
	req.Number = str(x.Number)
	req.InvoiceDate = str(x.InvoiceDate)
	req.DueDate = str(x.DueDate)
	req.Status = entity.InvoiceStatusDraft
	if x.Status != nil {
		if s, ok := entity.NormalizeStatus(*x.Status); ok {
			req.Status = s
		}
	}
	req.SenderName = str(x.SenderName)
	req.SenderAddress = str(x.SenderAddress)
	req.SenderEmail = str(x.SenderEmail)
	req.SenderPhone = str(x.SenderPhone)
	req.ClientName = str(x.ClientName)
	req.ClientAddress = str(x.ClientAddress)
	req.ClientEmail = str(x.ClientEmail)
	req.ClientPhone = str(x.ClientPhone)

	for _, li := range x.LineItems {
		item := dto.LineItemDTO{Description: str(li.Description), Quantity: 1}
		if finite(li.Quantity) && *li.Quantity >= 1 {
			item.Quantity = int(math.Round(*li.Quantity))
		}
		if finite(li.UnitPrice) {
			item.UnitPrice = decimal.NewFromFloat(*li.UnitPrice).Round(2)
		}
		req.LineItems = append(req.LineItems, item)
	}

	req.Subtotal = money(x.Subtotal)
	req.TaxAmount = money(x.TaxAmount)
	req.TotalAmount = money(x.TotalAmount)
	return req
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// finite false para nil, NaN e infinitos: decimal no los representa.
func finite(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

func money(p *float64) *decimal.Decimal {
	if !finite(p) {
		return nil
	}
	d := decimal.NewFromFloat(*p).Round(2)
	return &d
}
