package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/application/tenancy"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// LoginPath destino de la redirección cuando la sesión no corresponde al tenant del host.
const LoginPath = "/login"

// HostResolver resuelve el tenant a partir del host de la petición.
type HostResolver interface {
	FromHost(ctx context.Context, host string) (*entity.Tenant, error)
}

// DashboardResponse contenido del dashboard de un tenant: sus facturas, las más recientes primero.
type DashboardResponse struct {
	Tenant   dto.TenantResponse      `json:"tenant"`
	UserID   string                  `json:"userId"`
	Invoices dto.InvoiceListResponse `json:"invoices"`
}

// LandingResponse respuesta pública cuando el host no corresponde a ningún tenant.
type LandingResponse struct {
	Message string `json:"message"`
}

// DashboardHandler área del tenant resuelto por subdominio.
type DashboardHandler struct {
	resolver   HostResolver
	sessions   SessionValidator
	invoices   *invoicing.InvoiceUseCase
	cookieName string
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(resolver HostResolver, sessions SessionValidator, invoices *invoicing.InvoiceUseCase, cookieName string) *DashboardHandler {
	return &DashboardHandler{resolver: resolver, sessions: sessions, invoices: invoices, cookieName: cookieName}
}

// Show godoc
// @Summary      Dashboard del tenant
// @Description  El tenant sale del subdominio. Sin tenant: landing pública. Sesión de otro tenant
// @Description  o sin sesión: redirección a /login.
// @Tags         dashboard
// @Produce      json
// @Param        page   query  int  false  "página (desde 1)"
// @Param        limit  query  int  false  "tamaño de página (máx. 100)"
// @Success      200  {object}  DashboardResponse
// @Success      302
// @Router       /dashboard [get]
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	ctx := c.UserContext()
	tenant, err := h.resolver.FromHost(ctx, c.Hostname())
	if err != nil {
		return fail(c, err)
	}
	if tenant == nil {
		return c.JSON(LandingResponse{Message: "bienvenido; inicia sesión desde el subdominio de tu cuenta"})
	}

	token, err := sessionToken(c, h.cookieName)
	if err != nil || token == "" {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}
	sess, err := h.sessions.Session(ctx, token)
	if err != nil {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}
	if err := tenancy.Gate(tenant, sess.TenantID); err != nil {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}
	c.Locals(LocalTenantID, tenant.ID)

	// Lectura acotada al tenant del host, no al de la sesión.
	page := dto.PageRequest{
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 0),
		SortBy:    repository.InvoiceSortCreatedAt,
		SortOrder: "desc",
	}
	list, err := h.invoices.List(ctx, tenant.ID, page)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(DashboardResponse{
		Tenant:   dto.TenantResponse{ID: tenant.ID, Name: tenant.Name, Subdomain: tenant.Subdomain},
		UserID:   sess.UserID,
		Invoices: *list,
	})
}
