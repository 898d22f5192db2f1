// Package ubl exporta facturas como documentos UBL 2.1 Invoice.
package ubl

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
)

// Namespaces UBL 2.1.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	ublVersion   = "2.1"
	dateLayout   = "2006-01-02"
	invoiceType  = "380" // UNCL1001: factura comercial
	unitCodeEach = "EA"
)

// XMLBuilder construye el XML UBL de una factura (sin firma).
type XMLBuilder struct {
	currency string
}

// NewXMLBuilder crea el builder. currency vacío usa USD.
func NewXMLBuilder(currency string) *XMLBuilder {
	if currency == "" {
		currency = "USD"
	}
	return &XMLBuilder{currency: currency}
}

// Build genera el documento Invoice. El emisor es la parte Sender y el receptor la parte Client.
func (b *XMLBuilder) Build(tenant *entity.Tenant, inv *entity.Invoice) ([]byte, error) {
	if tenant == nil || inv == nil {
		return nil, fmt.Errorf("ubl: faltan tenant o invoice")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)

	cbc(root, "UBLVersionID", ublVersion)
	cbc(root, "CustomizationID", tenant.Subdomain)
	cbc(root, "ID", inv.Number)
	cbc(root, "UUID", inv.ID)
	cbc(root, "IssueDate", inv.InvoiceDate.Format(dateLayout))
	cbc(root, "DueDate", inv.DueDate.Format(dateLayout))
	cbc(root, "InvoiceTypeCode", invoiceType)
	cbc(root, "Note", "Status: "+inv.Status)
	cbc(root, "DocumentCurrencyCode", b.currency)
	cbc(root, "LineCountNumeric", fmt.Sprint(len(inv.LineItems)))

	party(root.CreateElement("cac:AccountingSupplierParty"), inv.Sender)
	party(root.CreateElement("cac:AccountingCustomerParty"), inv.Client)

	tax := root.CreateElement("cac:TaxTotal")
	b.amount(tax, "TaxAmount", inv.TaxAmount)

	totals := root.CreateElement("cac:LegalMonetaryTotal")
	b.amount(totals, "LineExtensionAmount", inv.Subtotal)
	b.amount(totals, "TaxExclusiveAmount", inv.Subtotal)
	b.amount(totals, "TaxInclusiveAmount", inv.TotalAmount)
	b.amount(totals, "PayableAmount", inv.TotalAmount)

	for i, li := range inv.LineItems {
		line := root.CreateElement("cac:InvoiceLine")
		cbc(line, "ID", fmt.Sprint(i+1))
		qty := cbc(line, "InvoicedQuantity", fmt.Sprint(li.Quantity))
		qty.CreateAttr("unitCode", unitCodeEach)
		b.amount(line, "LineExtensionAmount", li.Amount())
		item := line.CreateElement("cac:Item")
		cbc(item, "Description", li.Description)
		price := line.CreateElement("cac:Price")
		b.amount(price, "PriceAmount", li.UnitPrice)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ubl: serializar: %w", err)
	}
	return out, nil
}

func (b *XMLBuilder) amount(parent *etree.Element, name string, v decimal.Decimal) {
	el := cbc(parent, name, v.StringFixed(2))
	el.CreateAttr("currencyID", b.currency)
}

func cbc(parent *etree.Element, name, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + name)
	el.SetText(value)
	return el
}

func party(parent *etree.Element, p entity.Party) {
	pt := parent.CreateElement("cac:Party")
	pt.CreateElement("cac:PartyName").CreateElement("cbc:Name").SetText(p.Name)
	pt.CreateElement("cac:PostalAddress").CreateElement("cbc:StreetName").SetText(p.Address)
	if p.Email == "" && p.Phone == "" {
		return
	}
	contact := pt.CreateElement("cac:Contact")
	if p.Phone != "" {
		cbc(contact, "Telephone", p.Phone)
	}
	if p.Email != "" {
		cbc(contact, "ElectronicMail", p.Email)
	}
}

// Digest devuelve el SHA-256 en base64 de la forma canónica (C14N) del documento.
// Dos serializaciones equivalentes del mismo documento producen el mismo digest.
func Digest(doc []byte) (string, error) {
	// La declaración XML no forma parte de la forma canónica.
	doc = bytes.TrimSpace(doc)
	if bytes.HasPrefix(doc, []byte("<?xml")) {
		if end := bytes.Index(doc, []byte("?>")); end != -1 {
			doc = bytes.TrimSpace(doc[end+2:])
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("ubl: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
