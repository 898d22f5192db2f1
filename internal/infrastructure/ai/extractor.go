package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jhoicas/invoicing-api/internal/application/ports"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/pkg/config"
)

// Verificar en tiempo de compilación que Extractor implementa InvoiceExtractor.
var _ ports.InvoiceExtractor = (*Extractor)(nil)

const (
	extractInvoicePrompt = "You are an AI assistant that extracts all possible invoice details from text. " +
		"Extract the invoice number (number), invoice date (invoiceDate, YYYY-MM-DD), due date (dueDate, YYYY-MM-DD), " +
		"status (DRAFT, SENT, PAID, VOID). Also extract sender details (senderName, senderAddress, senderEmail, senderPhone) " +
		"and client details (clientName, clientAddress, clientEmail, clientPhone). " +
		"Identify line items (lineItems), each with a description, quantity, and unitPrice. " +
		"Finally, extract subtotal, taxAmount, and totalAmount as numbers. " +
		"If a field is not found, return null for that field. For line items, return an array of objects. " +
		"Return the data as a JSON object."

	describeTemplatePrompt = "You are an AI assistant that analyzes invoice text to identify its structure and key fields. " +
		`Identify common invoice fields like "Invoice Number", "Date", "Bill To", "Ship To", "Items" ` +
		`(with sub-fields like "Description", "Quantity", "Unit Price", "Line Total"), "Subtotal", "Tax", "Total". ` +
		"For each identified field, provide a suggested JSON key. " +
		"For line items, describe the array structure and its object properties. " +
		"Return the data as a JSON object representing the template structure."

	// Tope de lectura de las respuestas de los proveedores.
	maxResponseBytes = 256 * 1024
)

// completer es la llamada mínima que cada proveedor sabe hacer: prompt de sistema + texto del usuario,
// respuesta en texto (se espera un objeto JSON).
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// Extractor adaptador de InvoiceExtractor sobre un proveedor LLM.
// Sin proveedor configurado todas las llamadas devuelven domain.ErrProviderNotConfigured.
type Extractor struct {
	llm completer
}

// NewExtractor elige el proveedor según cfg.Provider (groq por defecto).
// Si falta la API key del proveedor elegido el extractor queda sin proveedor.
func NewExtractor(cfg config.AIConfig) *Extractor {
	client := &http.Client{Timeout: cfg.Timeout + 5*time.Second}
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return &Extractor{}
		}
		return &Extractor{llm: newAnthropic(client, cfg.AnthropicAPIKey, cfg.AnthropicModel)}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return &Extractor{}
		}
		return &Extractor{llm: newGemini(client, cfg.GeminiAPIKey, cfg.GeminiModel)}
	default:
		if cfg.GroqAPIKey == "" {
			return &Extractor{}
		}
		return &Extractor{llm: newGroq(client, cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)}
	}
}

// Provider nombre del proveedor activo; vacío si no hay.
func (e *Extractor) Provider() string {
	if e.llm == nil {
		return ""
	}
	return e.llm.name()
}

// ExtractInvoice pide al modelo los campos de la factura y tolera números como texto.
func (e *Extractor) ExtractInvoice(ctx context.Context, text string) (*entity.ExtractedInvoice, error) {
	raw, err := e.ask(ctx, extractInvoicePrompt, "Extract invoice details from the following text:\n\n"+text)
	if err != nil {
		return nil, err
	}
	var payload extractedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: JSON de factura inválido: %v", domain.ErrUpstream, e.llm.name(), err)
	}
	return payload.toEntity(), nil
}

// DescribeTemplate pide al modelo la estructura de la plantilla.
func (e *Extractor) DescribeTemplate(ctx context.Context, text string) (map[string]any, error) {
	raw, err := e.ask(ctx, describeTemplatePrompt, "Analyze the following invoice text and describe its template structure:\n\n"+text)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: JSON de plantilla inválido: %v", domain.ErrUpstream, e.llm.name(), err)
	}
	return out, nil
}

func (e *Extractor) ask(ctx context.Context, system, user string) (string, error) {
	if e.llm == nil {
		return "", domain.ErrProviderNotConfigured
	}
	content, err := e.llm.complete(ctx, system, user)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrUpstream, e.llm.name(), ctx.Err())
		}
		return "", fmt.Errorf("%w: %s: %v", domain.ErrUpstream, e.llm.name(), err)
	}
	clean := extractJSON(content)
	if clean == "" {
		return "", fmt.Errorf("%w: %s: la respuesta no contiene JSON", domain.ErrUpstream, e.llm.name())
	}
	return clean, nil
}
