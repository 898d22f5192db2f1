package tenancy

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

// SubdomainOf extrae el subdominio candidato del host: la etiqueta más a la izquierda, sin puerto.
// Devuelve "" para IPs, "www" y el dominio raíz configurado. La etiqueta se devuelve tal cual:
// la búsqueda del tenant es exacta.
func SubdomainOf(host, baseDomain string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	if baseDomain != "" && strings.EqualFold(host, baseDomain) {
		return ""
	}
	label, _, _ := strings.Cut(host, ".")
	if strings.EqualFold(label, "www") {
		return ""
	}
	return label
}

// Resolver obtiene el tenant de una petición por host o por sesión.
type Resolver struct {
	tenants    repository.TenantRepository
	baseDomain string
}

// NewResolver construye el resolver.
func NewResolver(tenants repository.TenantRepository, baseDomain string) *Resolver {
	return &Resolver{tenants: tenants, baseDomain: baseDomain}
}

// FromHost resuelve el tenant por subdominio. (nil, nil) significa "sin resolver": petición pública.
func (r *Resolver) FromHost(ctx context.Context, host string) (*entity.Tenant, error) {
	sub := SubdomainOf(host, r.baseDomain)
	if sub == "" {
		return nil, nil
	}
	t, err := r.tenants.GetBySubdomain(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("resolver tenant %q: %w", sub, err)
	}
	return t, nil
}

// FromSession valida que el tenant de la sesión siga existiendo.
func (r *Resolver) FromSession(ctx context.Context, tenantID string) (*entity.Tenant, error) {
	if tenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	t, err := r.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolver tenant de sesión: %w", err)
	}
	if t == nil {
		return nil, domain.ErrUnauthorized
	}
	return t, nil
}

// Gate autoriza el acceso a un área con tenant resuelto por host: la sesión debe ser de ese tenant.
func Gate(resolved *entity.Tenant, sessionTenantID string) error {
	if resolved == nil {
		return domain.ErrNoTenantContext
	}
	if sessionTenantID == "" || sessionTenantID != resolved.ID {
		return domain.ErrUnauthorized
	}
	return nil
}
