package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain"
)

// LocalError guarda el error original de la petición para el access log.
const LocalError = "error"

// errorStatus traduce un error de dominio a status HTTP, código y mensaje para el cliente.
// El orden importa: un plazo vencido llega envuelto en ErrUpstream y debe salir como 408.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout, "TIMEOUT", "el servicio externo tardó demasiado; intenta de nuevo"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNoTenantContext),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"
	case errors.Is(err, domain.ErrUnprocessableDocument):
		return fiber.StatusUnprocessableEntity, "UNPROCESSABLE_DOCUMENT", err.Error()
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return fiber.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "el servicio de extracción no está configurado"
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusBadGateway, "UPSTREAM", "el servicio externo falló"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, "EMAIL_EXISTS", err.Error()
	case errors.Is(err, domain.ErrSubdomainTaken):
		return fiber.StatusConflict, "SUBDOMAIN_TAKEN", err.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT", err.Error()
	default:
		return fiber.StatusInternalServerError, "INTERNAL", "error interno"
	}
}

// fail responde el error con su status y lo deja en Locals para el access log.
func fail(c *fiber.Ctx, err error) error {
	status, code, msg := errorStatus(err)
	c.Locals(LocalError, err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// ErrorHandler reemplaza el handler por defecto de Fiber: rutas inexistentes, body demasiado
// grande y pánicos recuperados salen con el mismo cuerpo {code, message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		c.Locals(LocalError, err)
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return fail(c, err)
}
