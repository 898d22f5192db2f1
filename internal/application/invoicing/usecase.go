package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// InvoiceUseCase casos de uso de facturas de un tenant. El tenant siempre viene de la sesión.
type InvoiceUseCase struct {
	repo repository.InvoiceRepository
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(repo repository.InvoiceRepository) *InvoiceUseCase {
	return &InvoiceUseCase{repo: repo}
}

// Create valida y persiste una factura nueva.
func (uc *InvoiceUseCase) Create(ctx context.Context, tenantID string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := ToEntity(in)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, tenantID, inv); err != nil {
		return nil, err
	}
	return ToResponse(inv), nil
}

// Get devuelve una factura del tenant; domain.ErrNotFound si es de otro tenant.
func (uc *InvoiceUseCase) Get(ctx context.Context, tenantID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToResponse(inv), nil
}

// Update reemplaza los campos editables. Última escritura gana: no hay control de versión.
func (uc *InvoiceUseCase) Update(ctx context.Context, tenantID, id string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := ToEntity(in)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	if err := uc.repo.Update(ctx, tenantID, inv); err != nil {
		return nil, err
	}
	return uc.Get(ctx, tenantID, id)
}

// Delete borra la factura del tenant.
func (uc *InvoiceUseCase) Delete(ctx context.Context, tenantID, id string) error {
	return uc.repo.Delete(ctx, tenantID, id)
}

// List devuelve una página de facturas. sortOrder vacío = desc.
func (uc *InvoiceUseCase) List(ctx context.Context, tenantID string, q dto.PageRequest) (*dto.InvoiceListResponse, error) {
	desc := true
	switch strings.ToLower(strings.TrimSpace(q.SortOrder)) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, fmt.Errorf("%w: sortOrder debe ser asc o desc", domain.ErrInvalidInput)
	}
	params := repository.InvoiceListParams{
		Page:     q.Page,
		PageSize: q.Limit,
		SortBy:   strings.TrimSpace(q.SortBy),
		SortDesc: desc,
	}.Normalize()

	page, err := uc.repo.List(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceListResponse{
		Invoices: make([]dto.InvoiceResponse, 0, len(page.Invoices)),
		Total:    page.Total,
		Page:     params.Page,
		Limit:    params.PageSize,
	}
	for _, inv := range page.Invoices {
		out.Invoices = append(out.Invoices, *ToResponse(inv))
	}
	return out, nil
}

// ToEntity valida la entrada y construye la factura.
// Reglas: campos obligatorios, estado conocido, al menos una línea con cantidad >= 1 y precio >= 0,
// importes no negativos y subtotal + impuesto = total al centavo.
func ToEntity(in dto.InvoiceRequest) (*entity.Invoice, error) {
	var problems []string
	required := func(v, name string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			problems = append(problems, name+" es obligatorio")
		}
		return v
	}

	inv := &entity.Invoice{
		Number: required(in.Number, "number"),
		Sender: entity.Party{
			Name:    required(in.SenderName, "senderName"),
			Address: required(in.SenderAddress, "senderAddress"),
			Email:   strings.TrimSpace(in.SenderEmail),
			Phone:   strings.TrimSpace(in.SenderPhone),
		},
		Client: entity.Party{
			Name:    required(in.ClientName, "clientName"),
			Address: required(in.ClientAddress, "clientAddress"),
			Email:   strings.TrimSpace(in.ClientEmail),
			Phone:   strings.TrimSpace(in.ClientPhone),
		},
	}

	var err error
	if inv.InvoiceDate, err = parseDate(in.InvoiceDate); err != nil {
		problems = append(problems, "invoiceDate "+err.Error())
	}
	if inv.DueDate, err = parseDate(in.DueDate); err != nil {
		problems = append(problems, "dueDate "+err.Error())
	}

	if strings.TrimSpace(in.Status) == "" {
		problems = append(problems, "status es obligatorio")
	} else if status, ok := entity.NormalizeStatus(in.Status); ok {
		inv.Status = status
	} else {
		problems = append(problems, "status debe ser DRAFT, SENT, PAID o VOID")
	}

	if len(in.LineItems) == 0 {
		problems = append(problems, "lineItems requiere al menos una línea")
	}
	for i, li := range in.LineItems {
		desc := strings.TrimSpace(li.Description)
		if desc == "" {
			problems = append(problems, fmt.Sprintf("lineItems[%d].description es obligatorio", i))
		}
		if li.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("lineItems[%d].quantity debe ser >= 1", i))
		}
		if li.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("lineItems[%d].unitPrice no puede ser negativo", i))
		}
		inv.LineItems = append(inv.LineItems, entity.LineItem{Description: desc, Quantity: li.Quantity, UnitPrice: li.UnitPrice})
	}

	amount := func(v *decimal.Decimal, name string) decimal.Decimal {
		if v == nil {
			problems = append(problems, name+" es obligatorio")
			return decimal.Zero
		}
		if v.IsNegative() {
			problems = append(problems, name+" no puede ser negativo")
		}
		return v.Round(2)
	}
	inv.Subtotal = amount(in.Subtotal, "subtotal")
	inv.TaxAmount = amount(in.TaxAmount, "taxAmount")
	inv.TotalAmount = amount(in.TotalAmount, "totalAmount")
	if in.Subtotal != nil && in.TaxAmount != nil && in.TotalAmount != nil &&
		!inv.Subtotal.Add(inv.TaxAmount).Equal(inv.TotalAmount) {
		problems = append(problems, "totalAmount debe ser subtotal + taxAmount")
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return inv, nil
}

// ToResponse convierte la entidad a la salida de la API.
func ToResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	if inv == nil {
		return nil
	}
	items := make([]dto.LineItemDTO, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		items = append(items, dto.LineItemDTO{Description: li.Description, Quantity: li.Quantity, UnitPrice: li.UnitPrice})
	}
	return &dto.InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		Number:        inv.Number,
		InvoiceDate:   inv.InvoiceDate.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
		Status:        inv.Status,
		SenderName:    inv.Sender.Name,
		SenderAddress: inv.Sender.Address,
		SenderEmail:   inv.Sender.Email,
		SenderPhone:   inv.Sender.Phone,
		ClientName:    inv.Client.Name,
		ClientAddress: inv.Client.Address,
		ClientEmail:   inv.Client.Email,
		ClientPhone:   inv.Client.Phone,
		LineItems:     items,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		CreatedAt:     inv.CreatedAt,
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("es obligatorio")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("no es una fecha válida (YYYY-MM-DD)")
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
