package entity

import "time"

// Tenant cuenta aislada de un cliente; es la unidad de partición de datos.
// El subdominio es único y se usa para resolver el tenant a partir del host.
type Tenant struct {
	ID        string
	Name      string
	Subdomain string
	CreatedAt time.Time
	UpdatedAt time.Time
}
