package http

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/application/ocr"
	"github.com/jhoicas/invoicing-api/internal/domain"
)

// uploadField campo multipart con el PDF a procesar.
const uploadField = "file"

// DocumentHandler OCR de facturas subidas y generación del PDF de una factura (protegido).
type DocumentHandler struct {
	ocr     *ocr.OCRUseCase
	pdf     *billing.PDFUseCase
	metrics *Metrics
}

// NewDocumentHandler construye el handler. metrics puede ser nil.
func NewDocumentHandler(ocrUC *ocr.OCRUseCase, pdfUC *billing.PDFUseCase, metrics *Metrics) *DocumentHandler {
	return &DocumentHandler{ocr: ocrUC, pdf: pdfUC, metrics: metrics}
}

// ExtractInvoice godoc
// @Summary      Extraer datos de una factura en PDF
// @Description  Lee el texto del PDF y lo estructura con el LLM configurado. Con draft=true
// @Description  devuelve un borrador listo para POST /api/invoices. No persiste nada.
// @Tags         ocr
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file   formData  file  true   "factura en PDF"
// @Param        draft  query     bool  false  "devolver borrador de factura"
// @Success      200  {object}  entity.ExtractedInvoice
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      408  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ocr-invoice [post]
func (h *DocumentHandler) ExtractInvoice(c *fiber.Ctx) error {
	if _, err := requestTenant(c); err != nil {
		return fail(c, err)
	}
	data, err := readUpload(c)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.ocr.ExtractInvoice(c.UserContext(), data)
	h.metrics.Document("ocr", err)
	if err != nil {
		return fail(c, err)
	}
	if c.QueryBool("draft") {
		return c.JSON(invoicing.FromExtracted(out))
	}
	return c.JSON(out)
}

// DescribeTemplate godoc
// @Summary      Describir la estructura de una plantilla de factura
// @Tags         ocr
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "plantilla en PDF"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/template-ocr [post]
func (h *DocumentHandler) DescribeTemplate(c *fiber.Ctx) error {
	if _, err := requestTenant(c); err != nil {
		return fail(c, err)
	}
	data, err := readUpload(c)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.ocr.DescribeTemplate(c.UserContext(), data)
	h.metrics.Document("template", err)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// GeneratePDF godoc
// @Summary      Generar el PDF de una factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        invoiceId  query  string  true  "id de la factura"
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/generate-pdf [get]
func (h *DocumentHandler) GeneratePDF(c *fiber.Ctx) error {
	tenantID, err := requestTenant(c)
	if err != nil {
		return fail(c, err)
	}
	invoiceID := strings.TrimSpace(c.Query("invoiceId"))
	if invoiceID == "" {
		return fail(c, fmt.Errorf("%w: invoiceId es obligatorio", domain.ErrInvalidInput))
	}
	doc, filename, err := h.pdf.InvoicePDF(c.UserContext(), tenantID, invoiceID)
	h.metrics.Document("pdf", err)
	if err != nil {
		return fail(c, err)
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(doc)
}

// readUpload lee el archivo del campo "file". Fiber ya limita el tamaño del body.
func readUpload(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("%w: se requiere un archivo en el campo %q", domain.ErrInvalidInput, uploadField)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("abrir archivo subido: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("leer archivo subido: %w", err)
	}
	return data, nil
}
