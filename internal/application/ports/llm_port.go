package ports

import (
	"context"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// InvoiceExtractor define el puerto de salida hacia el LLM que interpreta el texto de una factura.
// Cualquier adaptador (Groq, Anthropic, Gemini, mock) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type InvoiceExtractor interface {
	// ExtractInvoice devuelve los campos que el modelo encontró; el resto queda nil.
	ExtractInvoice(ctx context.Context, text string) (*entity.ExtractedInvoice, error)
	// DescribeTemplate devuelve la estructura de la plantilla (campos y claves JSON sugeridas).
	DescribeTemplate(ctx context.Context, text string) (map[string]any, error)
}

// DocumentTextExtractor obtiene el texto plano de un PDF.
type DocumentTextExtractor interface {
	ExtractText(pdf []byte) (string, error)
}
