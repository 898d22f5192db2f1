package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemDTO línea de factura en la API.
type LineItemDTO struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// InvoiceRequest entrada para crear o reemplazar una factura.
// Fechas en formato YYYY-MM-DD (se acepta también RFC 3339). Los importes son obligatorios;
// null o ausente se reporta como error de validación.
type InvoiceRequest struct {
	Number        string           `json:"number"`
	InvoiceDate   string           `json:"invoiceDate"`
	DueDate       string           `json:"dueDate"`
	Status        string           `json:"status"`
	SenderName    string           `json:"senderName"`
	SenderAddress string           `json:"senderAddress"`
	SenderEmail   string           `json:"senderEmail"`
	SenderPhone   string           `json:"senderPhone"`
	ClientName    string           `json:"clientName"`
	ClientAddress string           `json:"clientAddress"`
	ClientEmail   string           `json:"clientEmail"`
	ClientPhone   string           `json:"clientPhone"`
	LineItems     []LineItemDTO    `json:"lineItems"`
	Subtotal      *decimal.Decimal `json:"subtotal"`
	TaxAmount     *decimal.Decimal `json:"taxAmount"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
}

// InvoiceResponse salida de una factura.
type InvoiceResponse struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenantId"`
	Number        string          `json:"number"`
	InvoiceDate   string          `json:"invoiceDate"`
	DueDate       string          `json:"dueDate"`
	Status        string          `json:"status"`
	SenderName    string          `json:"senderName"`
	SenderAddress string          `json:"senderAddress"`
	SenderEmail   string          `json:"senderEmail"`
	SenderPhone   string          `json:"senderPhone"`
	ClientName    string          `json:"clientName"`
	ClientAddress string          `json:"clientAddress"`
	ClientEmail   string          `json:"clientEmail"`
	ClientPhone   string          `json:"clientPhone"`
	LineItems     []LineItemDTO   `json:"lineItems"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// InvoiceListResponse una página de facturas.
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}
