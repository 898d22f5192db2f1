package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Se agrupan por la clase de error que ve el cliente HTTP.
var (
	// Validación (400)
	ErrInvalidInput = errors.New("entrada inválida")

	// No encontrado (404). También cuando el recurso pertenece a otro tenant.
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")

	// Autenticación (401)
	ErrUnauthorized    = errors.New("no autorizado")
	ErrNoTenantContext = errors.New("operación sin contexto de tenant")

	// Servicios externos: OCR, LLM, PDF (422 / 502 / 503)
	ErrUpstream              = errors.New("fallo del servicio externo")
	ErrUnprocessableDocument = errors.New("no se pudo leer el documento")
	ErrProviderNotConfigured = errors.New("proveedor externo no configurado")

	// Conflicto (409)
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrSubdomainTaken     = errors.New("el subdominio ya está en uso")
	ErrConflict           = errors.New("conflicto con el estado actual")
)
