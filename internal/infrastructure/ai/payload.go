package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
// Captura desde el primer '{' hasta el último '}'.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el objeto JSON de un texto libre.
//  1. Elimina bloques de código markdown (```json … ``` o ``` … ```).
//  2. Si no empieza con '{', captura el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

// flexNumber acepta 12.5, "12.5", "$1,234.50" o null. NaN e infinitos cuentan como ausentes.
type flexNumber struct {
	v  float64
	ok bool
}

var numberNoise = strings.NewReplacer(",", "", "$", "", "€", "", " ", "")

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(numberNoise.Replace(strings.TrimSpace(s)), 64)
		if err != nil {
			return nil
		}
		n.set(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	n.set(f)
	return nil
}

func (n *flexNumber) set(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	n.v, n.ok = f, true
}

func (n flexNumber) ptr() *float64 {
	if !n.ok {
		return nil
	}
	v := n.v
	return &v
}

// flexString acepta texto, números o null; vacío cuenta como ausente.
type flexString struct {
	v  string
	ok bool
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return nil
		}
		str = num.String()
	}
	str = strings.TrimSpace(str)
	if str != "" && !strings.EqualFold(str, "null") {
		s.v, s.ok = str, true
	}
	return nil
}

func (s flexString) ptr() *string {
	if !s.ok {
		return nil
	}
	v := s.v
	return &v
}

type extractedPayload struct {
	Number        flexString    `json:"number"`
	InvoiceNumber flexString    `json:"invoiceNumber"`
	InvoiceDate   flexString    `json:"invoiceDate"`
	DueDate       flexString    `json:"dueDate"`
	Status        flexString    `json:"status"`
	SenderName    flexString    `json:"senderName"`
	SenderAddress flexString    `json:"senderAddress"`
	SenderEmail   flexString    `json:"senderEmail"`
	SenderPhone   flexString    `json:"senderPhone"`
	ClientName    flexString    `json:"clientName"`
	ClientAddress flexString    `json:"clientAddress"`
	ClientEmail   flexString    `json:"clientEmail"`
	ClientPhone   flexString    `json:"clientPhone"`
	LineItems     []linePayload `json:"lineItems"`
	Subtotal      flexNumber    `json:"subtotal"`
	TaxAmount     flexNumber    `json:"taxAmount"`
	TotalAmount   flexNumber    `json:"totalAmount"`
}

type linePayload struct {
	Description flexString `json:"description"`
	Quantity    flexNumber `json:"quantity"`
	UnitPrice   flexNumber `json:"unitPrice"`
}

func (p extractedPayload) toEntity() *entity.ExtractedInvoice {
	number := p.Number
	if !number.ok {
		number = p.InvoiceNumber
	}
	out := &entity.ExtractedInvoice{
		Number:        number.ptr(),
		InvoiceDate:   p.InvoiceDate.ptr(),
		DueDate:       p.DueDate.ptr(),
		SenderName:    p.SenderName.ptr(),
		SenderAddress: p.SenderAddress.ptr(),
		SenderEmail:   p.SenderEmail.ptr(),
		SenderPhone:   p.SenderPhone.ptr(),
		ClientName:    p.ClientName.ptr(),
		ClientAddress: p.ClientAddress.ptr(),
		ClientEmail:   p.ClientEmail.ptr(),
		ClientPhone:   p.ClientPhone.ptr(),
		Subtotal:      p.Subtotal.ptr(),
		TaxAmount:     p.TaxAmount.ptr(),
		TotalAmount:   p.TotalAmount.ptr(),
	}
	if p.Status.ok {
		if s, ok := entity.NormalizeStatus(p.Status.v); ok {
			out.Status = &s
		}
	}
	for _, li := range p.LineItems {
		item := entity.ExtractedLineItem{
			Description: li.Description.ptr(),
			Quantity:    li.Quantity.ptr(),
			UnitPrice:   li.UnitPrice.ptr(),
		}
		if item.Description == nil && item.Quantity == nil && item.UnitPrice == nil {
			continue
		}
		out.LineItems = append(out.LineItems, item)
	}
	return out
}
