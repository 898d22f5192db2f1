package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura.
const (
	InvoiceStatusDraft = "DRAFT"
	InvoiceStatusSent  = "SENT"
	InvoiceStatusPaid  = "PAID"
	InvoiceStatusVoid  = "VOID"
)

// NormalizeStatus pasa el estado a mayúsculas y devuelve false si no es uno de los conocidos.
func NormalizeStatus(s string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	switch up {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusVoid:
		return up, true
	}
	return up, false
}

// Party datos de emisor o cliente de la factura.
type Party struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// LineItem una línea facturable. No es una entidad direccionable: se guarda serializada dentro de la factura.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Amount cantidad × precio unitario.
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Invoice cabecera y líneas de una factura de un tenant.
// Subtotal, TaxAmount y TotalAmount los calcula el cliente al escribir; no se recalculan aquí.
type Invoice struct {
	ID          string
	TenantID    string
	Number      string
	InvoiceDate time.Time
	DueDate     time.Time
	Status      string
	Sender      Party
	Client      Party
	LineItems   []LineItem
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}
