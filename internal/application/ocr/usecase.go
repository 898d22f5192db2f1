package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/invoicing-api/internal/application/ports"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// DefaultTimeout tope de una llamada al LLM si no se configura otro.
const DefaultTimeout = 20 * time.Second

// OCRUseCase orquesta la lectura de un PDF y la extracción asistida por IA.
// El resultado es un dato parcial y no confiable: nunca se persiste sin confirmación del usuario.
type OCRUseCase struct {
	text    ports.DocumentTextExtractor
	llm     ports.InvoiceExtractor
	timeout time.Duration
}

// NewOCRUseCase construye el caso de uso. timeout <= 0 usa DefaultTimeout.
func NewOCRUseCase(text ports.DocumentTextExtractor, llm ports.InvoiceExtractor, timeout time.Duration) *OCRUseCase {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OCRUseCase{text: text, llm: llm, timeout: timeout}
}

// ExtractInvoice extrae los campos de factura de un PDF.
func (uc *OCRUseCase) ExtractInvoice(ctx context.Context, pdf []byte) (*entity.ExtractedInvoice, error) {
	text, err := uc.readText(pdf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	out, err := uc.llm.ExtractInvoice(ctx, text)
	if err != nil {
		return nil, wrapLLMError(ctx, err)
	}
	if out.IsEmpty() {
		return nil, fmt.Errorf("%w: el modelo no devolvió ningún campo", domain.ErrUpstream)
	}
	return out, nil
}

// DescribeTemplate describe la estructura de la plantilla de la factura del PDF.
func (uc *OCRUseCase) DescribeTemplate(ctx context.Context, pdf []byte) (map[string]any, error) {
	text, err := uc.readText(pdf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	out, err := uc.llm.DescribeTemplate(ctx, text)
	if err != nil {
		return nil, wrapLLMError(ctx, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: el modelo no describió la plantilla", domain.ErrUpstream)
	}
	return out, nil
}

func (uc *OCRUseCase) readText(pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", fmt.Errorf("%w: no se subió ningún archivo", domain.ErrInvalidInput)
	}
	text, err := uc.text.ExtractText(pdf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnprocessableDocument, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: el PDF no contiene texto", domain.ErrUnprocessableDocument)
	}
	return text, nil
}

// wrapLLMError conserva los errores de dominio del adaptador y marca el vencimiento del plazo.
func wrapLLMError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, context.DeadlineExceeded)
	}
	if errors.Is(err, domain.ErrProviderNotConfigured) || errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}
