// Package pdf genera el PDF de una factura y extrae texto de PDFs subidos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tenant                 │  INVOICE N° + fechas       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FROM: emisor                   │  BILL TO: cliente          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Descripción | Cant | P.Unit | Importe                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Tax / TOTAL                             │
//	│  FOOTER: QR con la referencia de la factura + estado         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	appbilling "github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que el generador implementa el puerto.
var _ appbilling.InvoicePDFGenerator = (*InvoiceGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const dateLayout = "2006-01-02"

// InvoiceGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
// Los importes se formatean con los separadores del idioma configurado.
type InvoiceGenerator struct {
	printer *message.Printer
}

// NewInvoiceGenerator construye el generador. Idioma inválido o vacío: inglés.
func NewInvoiceGenerator(lang string) *InvoiceGenerator {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &InvoiceGenerator{printer: message.NewPrinter(tag)}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *InvoiceGenerator) GenerateInvoicePDF(ctx context.Context, tenant *entity.Tenant, inv *entity.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice "+inv.Number, true).
		WithAuthor(tenant.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(tenant, inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.lineItemRows(inv.LineItems)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(inv))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(tenant, inv))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// Money formatea un importe con dos decimales y separador de miles del idioma.
func (g *InvoiceGenerator) Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return g.printer.Sprint(number.Decimal(f, number.Scale(2)))
}

func headerRow(tenant *entity.Tenant, inv *entity.Invoice) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(tenant.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(tenant.Subdomain, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("INVOICE", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(inv.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Date: "+inv.InvoiceDate.Format(dateLayout), props.Text{Size: 8, Align: align.Right, Top: 12, Color: colorGray}),
			text.New("Due: "+inv.DueDate.Format(dateLayout), props.Text{Size: 8, Align: align.Right, Top: 16, Color: colorGray}),
		),
	)
}

func partiesRow(inv *entity.Invoice) core.Row {
	party := func(title string, p entity.Party) core.Col {
		return col.New(6).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(p.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(p.Address, props.Text{Size: 8, Top: 11, Color: colorGray}),
			text.New(contactLine(p), props.Text{Size: 8, Top: 15, Color: colorGray}),
		)
	}
	return row.New(21).Add(party("FROM", inv.Sender), party("BILL TO", inv.Client))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Description", 6, align.Left),
		h("Qty", 1, align.Center),
		h("Unit price", 2, align.Right),
		h("Amount", 3, align.Right),
	)
}

func (g *InvoiceGenerator) lineItemRows(items []entity.LineItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, li := range items {
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(li.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(fmt.Sprint(li.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(g.Money(li.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(g.Money(li.Amount()), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func (g *InvoiceGenerator) totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}
		if grand {
			p.Size, p.Color = 10, colorPrimary
		}
		return text.New(s, p)
	}
	value := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if grand {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1, false),
			label("Tax:", 6, false),
			label("TOTAL:", 12, true),
		),
		col.New(3).Add(
			value(g.Money(inv.Subtotal), 1, false),
			value(g.Money(inv.TaxAmount), 6, false),
			value(g.Money(inv.TotalAmount), 12, true),
		),
	)
}

// footerRow: QR con la referencia de la factura y el estado.
func footerRow(tenant *entity.Tenant, inv *entity.Invoice) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(QRPayload(tenant, inv), props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Status: "+inv.Status, props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary}),
			text.New("Reference: "+inv.ID, props.Text{Size: 7, Top: 10, Left: 3, Color: colorGray}),
		),
	)
}

// QRPayload contenido del código QR: referencia estable de la factura.
func QRPayload(tenant *entity.Tenant, inv *entity.Invoice) string {
	return fmt.Sprintf("invoice:%s;tenant:%s;number:%s;total:%s", inv.ID, tenant.Subdomain, inv.Number, inv.TotalAmount.StringFixed(2))
}

func contactLine(p entity.Party) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.Email, p.Phone} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "  |  ")
}
