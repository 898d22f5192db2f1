package dto

import "time"

// SignupRequest entrada del registro: crea un tenant nuevo y su primer usuario.
// TenantName y Subdomain son opcionales; por defecto se derivan del email y de un valor aleatorio.
type SignupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	TenantName string `json:"tenantName" validate:"omitempty,max=200"`
	Subdomain  string `json:"subdomain" validate:"omitempty,max=63"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// TenantResponse salida de un tenant.
type TenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// SessionResponse token de sesión más el usuario y su tenant.
type SessionResponse struct {
	Token  string          `json:"token"`
	User   UserResponse    `json:"user"`
	Tenant *TenantResponse `json:"tenant,omitempty"`
}
