package postgres

// Modelos expuestos solo para los tests del paquete externo.
type (
	InvoiceModel = invoiceModel
	UserModel    = userModel
	TenantModel  = tenantModel
)
