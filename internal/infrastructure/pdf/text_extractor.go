package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jhoicas/invoicing-api/internal/application/ports"
)

// Verificar en tiempo de compilación que TextExtractor implementa DocumentTextExtractor.
var _ ports.DocumentTextExtractor = (*TextExtractor)(nil)

// maxTextBytes tope del texto enviado al LLM.
const maxTextBytes = 64 * 1024

// TextExtractor obtiene el texto plano de un PDF con ledongthuc/pdf.
type TextExtractor struct{}

// NewTextExtractor construye el extractor.
func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// ExtractText devuelve el texto de todas las páginas. Un PDF corrupto es un error, nunca un panic.
func (e *TextExtractor) ExtractText(data []byte) (text string, err error) {
	// La librería entra en panic con algunos documentos malformados.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf: documento malformado: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: abrir documento: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: extraer texto: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, maxTextBytes)); err != nil {
		return "", fmt.Errorf("pdf: leer texto: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
