package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/domain"
)

// InvoiceHandler maneja el CRUD de facturas del tenant de la sesión (protegido).
type InvoiceHandler struct {
	uc      *invoicing.InvoiceUseCase
	ubl     *billing.UBLUseCase
	metrics *Metrics
}

// NewInvoiceHandler construye el handler. ubl y metrics pueden ser nil.
func NewInvoiceHandler(uc *invoicing.InvoiceUseCase, ubl *billing.UBLUseCase, metrics *Metrics) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, ubl: ubl, metrics: metrics}
}

// List godoc
// @Summary      Listar facturas
// @Description  Página de facturas del tenant. sortBy admite number, invoiceDate, dueDate, status,
// @Description  clientName, senderName, subtotal, taxAmount, totalAmount y createdAt.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        page       query  int     false  "página (desde 1)"
// @Param        limit      query  int     false  "tamaño de página (máx. 100)"
// @Param        sortBy     query  string  false  "campo de orden (por defecto dueDate)"
// @Param        sortOrder  query  string  false  "asc | desc"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tenantID, err := requestTenant(c)
	if err != nil {
		return fail(c, err)
	}
	var q dto.PageRequest
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "page y limit deben ser enteros"})
	}
	out, err := h.uc.List(c.UserContext(), tenantID, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear factura
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceRequest  true  "factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	tenantID, err := requestTenant(c)
	if err != nil {
		return fail(c, err)
	}
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), tenantID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "id de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), tenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Reemplazar factura
// @Description  Reemplaza todos los campos editables. La última escritura gana.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "id de la factura"
// @Param        body  body  dto.InvoiceRequest  true  "factura"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return fail(c, err)
	}
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.UserContext(), tenantID, id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar factura
// @Tags         invoices
// @Security     Bearer
// @Param        id   path  string  true  "id de la factura"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), tenantID, id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UBL godoc
// @Summary      Exportar factura como UBL 2.1
// @Description  Devuelve el XML como adjunto. El header Digest lleva el SHA-256 de la forma canónica.
// @Tags         invoices
// @Security     Bearer
// @Produce      xml
// @Param        id   path  string  true  "id de la factura"
// @Success      200  {file}  file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/ubl [get]
func (h *InvoiceHandler) UBL(c *fiber.Ctx) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return fail(c, err)
	}
	doc, err := h.ubl.Export(c.UserContext(), tenantID, id)
	h.metrics.Document("ubl", err)
	if err != nil {
		return fail(c, err)
	}
	c.Attachment(doc.Filename)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set("Digest", "SHA-256="+doc.Digest)
	return c.Send(doc.XML)
}

func tenantAndID(c *fiber.Ctx) (string, string, error) {
	tenantID, err := requestTenant(c)
	if err != nil {
		return "", "", err
	}
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", "", domain.ErrInvalidInput
	}
	return tenantID, id, nil
}
