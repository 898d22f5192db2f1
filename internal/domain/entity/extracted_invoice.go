package entity

// ExtractedInvoice resultado parcial de la extracción OCR/LLM.
// Todos los campos son opcionales: el modelo devuelve null para lo que no encuentra.
// Es un dato no confiable; solo se persiste como Invoice después de que el usuario lo confirma.
type ExtractedInvoice struct {
	Number        *string             `json:"number"`
	InvoiceDate   *string             `json:"invoiceDate"` // YYYY-MM-DD
	DueDate       *string             `json:"dueDate"`     // YYYY-MM-DD
	Status        *string             `json:"status"`
	SenderName    *string             `json:"senderName"`
	SenderAddress *string             `json:"senderAddress"`
	SenderEmail   *string             `json:"senderEmail"`
	SenderPhone   *string             `json:"senderPhone"`
	ClientName    *string             `json:"clientName"`
	ClientAddress *string             `json:"clientAddress"`
	ClientEmail   *string             `json:"clientEmail"`
	ClientPhone   *string             `json:"clientPhone"`
	LineItems     []ExtractedLineItem `json:"lineItems"`
	Subtotal      *float64            `json:"subtotal"`
	TaxAmount     *float64            `json:"taxAmount"`
	TotalAmount   *float64            `json:"totalAmount"`
}

// ExtractedLineItem línea parcial extraída por el LLM.
type ExtractedLineItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
}

// IsEmpty true si el modelo no devolvió ningún campo útil.
func (e *ExtractedInvoice) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.Number == nil && e.InvoiceDate == nil && e.DueDate == nil && e.Status == nil &&
		e.SenderName == nil && e.SenderAddress == nil && e.SenderEmail == nil && e.SenderPhone == nil &&
		e.ClientName == nil && e.ClientAddress == nil && e.ClientEmail == nil && e.ClientPhone == nil &&
		len(e.LineItems) == 0 && e.Subtotal == nil && e.TaxAmount == nil && e.TotalAmount == nil
}
