package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/application/ocr"
	"github.com/jhoicas/invoicing-api/internal/application/tenancy"
	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/pdf"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres/postgrestest"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/ubl"
	apphttp "github.com/jhoicas/invoicing-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCookie     = "session"
	testBaseDomain = "example.com"
)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) ExtractText([]byte) (string, error) { return f.text, f.err }

type fakeLLM struct {
	invoice *entity.ExtractedInvoice
	err     error
	block   bool
}

func (f *fakeLLM) ExtractInvoice(ctx context.Context, _ string) (*entity.ExtractedInvoice, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.invoice, f.err
}

func (f *fakeLLM) DescribeTemplate(_ context.Context, _ string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"invoiceNumber": "Invoice No."}, nil
}

type testServer struct {
	app     *fiber.App
	llm     *fakeLLM
	metrics *apphttp.Metrics
}

// newServer arma la aplicación completa sobre SQLite en memoria.
func newServer(t *testing.T, text fakeText, llm *fakeLLM, ocrTimeout time.Duration) *testServer {
	t.Helper()
	return newServerBehindProxies(t, text, llm, ocrTimeout, nil)
}

func newServerBehindProxies(t *testing.T, text fakeText, llm *fakeLLM, ocrTimeout time.Duration, trustedProxies []string) *testServer {
	t.Helper()
	metrics := apphttp.NewMetrics("test")
	db := postgrestest.Open(t, metrics.TenantScopeDenied)

	tenants := postgres.NewTenantRepository(db)
	users := postgres.NewUserRepository(db)
	invoices := postgres.NewInvoiceRepository(db)

	authUC := auth.NewAuthUseCase(postgres.NewTxRunner(db), users, tenants,
		auth.JWTConfig{Secret: "test-secret", ExpMinutes: 60, Issuer: "invoicing-test"})

	app := fiber.New(apphttp.ServerConfig("invoicing-test", 0, trustedProxies))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:     authUC,
		InvoiceUC:  invoicing.NewInvoiceUseCase(invoices),
		OCRUC:      ocr.NewOCRUseCase(text, llm, ocrTimeout),
		PDFUC:      billing.NewPDFUseCase(invoices, tenants, pdf.NewInvoiceGenerator("en")),
		UBLUC:      billing.NewUBLUseCase(invoices, tenants, ubl.NewXMLBuilder("USD"), ubl.Digest),
		Resolver:   tenancy.NewResolver(tenants, testBaseDomain),
		Metrics:    metrics,
		CookieName: testCookie,
		SessionTTL: time.Hour,
	})
	return &testServer{app: app, llm: llm, metrics: metrics}
}

func defaultServer(t *testing.T) *testServer {
	return newServer(t, fakeText{text: "Invoice INV-1"}, &fakeLLM{}, time.Second)
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func jsonRequest(method, target, token string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// signup registra una cuenta y devuelve la sesión.
func (s *testServer) signup(t *testing.T, email, subdomain string) dto.SessionResponse {
	t.Helper()
	resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "secreta123", "subdomain": subdomain,
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out dto.SessionResponse
	decode(t, resp, &out)
	return out
}

func invoiceBody(number string) map[string]any {
	return map[string]any{
		"number":        number,
		"invoiceDate":   "2024-03-01",
		"dueDate":       "2024-03-31",
		"status":        "sent",
		"senderName":    "Acme",
		"senderAddress": "Calle 1",
		"clientName":    "Globex",
		"clientAddress": "Calle 2",
		"lineItems":     []map[string]any{{"description": "Hosting", "quantity": 2, "unitPrice": "50.00"}},
		"subtotal":      "100.00",
		"taxAmount":     "19.00",
		"totalAmount":   "119.00",
	}
}

func (s *testServer) createInvoice(t *testing.T, token, number string) dto.InvoiceResponse {
	t.Helper()
	resp := s.do(t, jsonRequest(http.MethodPost, "/api/invoices", token, invoiceBody(number)))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out dto.InvoiceResponse
	decode(t, resp, &out)
	return out
}

func multipartPDF(t *testing.T, target, token string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withFile {
		part, err := w.CreateFormFile("file", "factura.pdf")
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF-1.4 contenido"))
	} else {
		require.NoError(t, w.WriteField("otro", "x"))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthcheck(t *testing.T) {
	s := defaultServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out apphttp.HealthResponse
	decode(t, resp, &out)
	assert.True(t, out.OK)
	_, err := time.Parse(time.RFC3339, out.Time)
	assert.NoError(t, err)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuth_SignupLoginLogout(t *testing.T) {
	s := defaultServer(t)

	resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ana@acme.com", "password": "secreta123", "tenantName": "Acme", "subdomain": "acme",
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var session dto.SessionResponse
	decode(t, resp, &session)
	assert.NotEmpty(t, session.Token)
	require.NotNil(t, session.Tenant)
	assert.Equal(t, "acme", session.Tenant.Subdomain)
	require.NotEmpty(t, resp.Cookies())
	assert.Equal(t, testCookie, resp.Cookies()[0].Name)
	assert.True(t, resp.Cookies()[0].HttpOnly)

	t.Run("email repetido", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": "ANA@acme.com", "password": "secreta123",
		}))
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		var e dto.ErrorResponse
		decode(t, resp, &e)
		assert.Equal(t, "EMAIL_EXISTS", e.Code)
	})
	t.Run("subdominio repetido", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": "otro@acme.com", "password": "secreta123", "subdomain": "acme",
		}))
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
	t.Run("password corto", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": "corto@acme.com", "password": "123",
		}))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
	t.Run("login", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "Ana@Acme.com", "password": "secreta123",
		}))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out dto.SessionResponse
		decode(t, resp, &out)
		assert.Equal(t, session.Tenant.ID, out.User.TenantID)
	})
	t.Run("login con password incorrecto", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ana@acme.com", "password": "incorrecta",
		}))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
	t.Run("logout borra la cookie", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", "", nil))
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		require.NotEmpty(t, resp.Cookies())
		assert.Empty(t, resp.Cookies()[0].Value)
	})
}

func TestAuthMiddleware(t *testing.T) {
	s := defaultServer(t)
	session := s.signup(t, "ana@acme.com", "acme")

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantCode   string
	}{
		{name: "sin credenciales", wantStatus: fiber.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "formato incorrecto", header: "Token abc", wantStatus: fiber.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "token inválido", header: "Bearer no-es-un-jwt", wantStatus: fiber.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "bearer válido", header: "Bearer " + session.Token, wantStatus: fiber.StatusOK},
		{name: "cookie de sesión", cookie: session.Token, wantStatus: fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCookie, Value: tt.cookie})
			}
			resp := s.do(t, req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				var e dto.ErrorResponse
				decode(t, resp, &e)
				assert.Equal(t, tt.wantCode, e.Code)
			}
		})
	}
}

func TestInvoices_CRUD(t *testing.T) {
	s := defaultServer(t)
	token := s.signup(t, "ana@acme.com", "acme").Token

	created := s.createInvoice(t, token, "INV-001")
	assert.Equal(t, "SENT", created.Status)
	assert.Equal(t, "119", created.TotalAmount.String())
	assert.Equal(t, "2024-03-31", created.DueDate)

	resp := s.do(t, jsonRequest(http.MethodGet, "/api/invoices/"+created.ID, token, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got dto.InvoiceResponse
	decode(t, resp, &got)
	assert.Equal(t, "INV-001", got.Number)
	require.Len(t, got.LineItems, 1)

	body := invoiceBody("INV-001")
	body["status"] = "PAID"
	resp = s.do(t, jsonRequest(http.MethodPut, "/api/invoices/"+created.ID, token, body))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Equal(t, "PAID", got.Status)

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices?page=1&limit=5&sortBy=totalAmount&sortOrder=asc", token, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	decode(t, resp, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 5, list.Limit)
	require.Len(t, list.Invoices, 1)

	resp = s.do(t, jsonRequest(http.MethodDelete, "/api/invoices/"+created.ID, token, nil))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices/"+created.ID, token, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInvoices_Validacion(t *testing.T) {
	s := defaultServer(t)
	token := s.signup(t, "ana@acme.com", "acme").Token

	body := invoiceBody("INV-002")
	body["totalAmount"] = "120.00"
	resp := s.do(t, jsonRequest(http.MethodPost, "/api/invoices", token, body))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Contains(t, e.Message, "totalAmount")

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices?sortBy=password", token, nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp = s.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInvoices_AislamientoEntreTenants(t *testing.T) {
	s := defaultServer(t)
	acme := s.signup(t, "ana@acme.com", "acme")
	globex := s.signup(t, "bob@globex.com", "globex")

	inv := s.createInvoice(t, acme.Token, "INV-ACME")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp := s.do(t, jsonRequest(method, "/api/invoices/"+inv.ID, globex.Token, nil))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, method)
	}
	resp := s.do(t, jsonRequest(http.MethodPut, "/api/invoices/"+inv.ID, globex.Token, invoiceBody("ROBADA")))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices", globex.Token, nil))
	var list dto.InvoiceListResponse
	decode(t, resp, &list)
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Invoices)

	// tenantId de otro tenant en la query: no se revela nada.
	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices?tenantId="+acme.Tenant.ID, globex.Token, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices?tenantId="+acme.Tenant.ID, acme.Token, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/invoices/"+inv.ID, acme.Token, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "la factura sigue intacta para su dueño")
}

func TestOCRInvoice(t *testing.T) {
	number, client, total := "INV-77", "Globex", 119.0
	qty, price := 2.0, 50.0
	desc := "Hosting"
	extracted := &entity.ExtractedInvoice{
		Number:      &number,
		ClientName:  &client,
		TotalAmount: &total,
		LineItems:   []entity.ExtractedLineItem{{Description: &desc, Quantity: &qty, UnitPrice: &price}},
	}
	s := newServer(t, fakeText{text: "Invoice INV-77"}, &fakeLLM{invoice: extracted}, time.Second)
	token := s.signup(t, "ana@acme.com", "acme").Token

	resp := s.do(t, multipartPDF(t, "/api/ocr-invoice", token, true))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out entity.ExtractedInvoice
	decode(t, resp, &out)
	require.NotNil(t, out.Number)
	assert.Equal(t, "INV-77", *out.Number)
	assert.Nil(t, out.DueDate)

	resp = s.do(t, multipartPDF(t, "/api/ocr-invoice?draft=true", token, true))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var draft dto.InvoiceRequest
	decode(t, resp, &draft)
	assert.Equal(t, "INV-77", draft.Number)
	assert.Equal(t, entity.InvoiceStatusDraft, draft.Status)
	require.Len(t, draft.LineItems, 1)
	assert.Equal(t, 2, draft.LineItems[0].Quantity)

	resp = s.do(t, multipartPDF(t, "/api/ocr-invoice", token, false))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, multipartPDF(t, "/api/template-ocr", token, true))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var tpl map[string]any
	decode(t, resp, &tpl)
	assert.Equal(t, "Invoice No.", tpl["invoiceNumber"])
}

func TestOCRInvoice_Errores(t *testing.T) {
	tests := []struct {
		name       string
		text       fakeText
		llm        *fakeLLM
		wantStatus int
	}{
		{name: "pdf ilegible", text: fakeText{err: assert.AnError}, llm: &fakeLLM{}, wantStatus: fiber.StatusUnprocessableEntity},
		{name: "pdf sin texto", text: fakeText{text: "  "}, llm: &fakeLLM{}, wantStatus: fiber.StatusUnprocessableEntity},
		{name: "sin proveedor", text: fakeText{text: "x"}, llm: &fakeLLM{err: domain.ErrProviderNotConfigured}, wantStatus: fiber.StatusServiceUnavailable},
		{name: "proveedor falla", text: fakeText{text: "x"}, llm: &fakeLLM{err: assert.AnError}, wantStatus: fiber.StatusBadGateway},
		{name: "plazo vencido", text: fakeText{text: "x"}, llm: &fakeLLM{block: true}, wantStatus: fiber.StatusRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, tt.text, tt.llm, 50*time.Millisecond)
			token := s.signup(t, "ana@acme.com", "acme").Token
			resp := s.do(t, multipartPDF(t, "/api/ocr-invoice", token, true))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestGeneratePDF(t *testing.T) {
	s := defaultServer(t)
	acme := s.signup(t, "ana@acme.com", "acme")
	globex := s.signup(t, "bob@globex.com", "globex")
	inv := s.createInvoice(t, acme.Token, "INV-PDF")

	resp := s.do(t, jsonRequest(http.MethodGet, "/api/generate-pdf?invoiceId="+inv.ID, acme.Token, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="invoice-`+inv.ID+`.pdf"`)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/generate-pdf", acme.Token, nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, jsonRequest(http.MethodGet, "/api/generate-pdf?invoiceId="+inv.ID, globex.Token, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInvoiceUBL(t *testing.T) {
	s := defaultServer(t)
	token := s.signup(t, "ana@acme.com", "acme").Token
	inv := s.createInvoice(t, token, "INV-UBL")

	resp := s.do(t, jsonRequest(http.MethodGet, "/api/invoices/"+inv.ID+"/ubl", token, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	assert.Regexp(t, `^SHA-256=[A-Za-z0-9+/]{43}=$`, resp.Header.Get("Digest"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "INV-UBL")
}

func TestDashboard(t *testing.T) {
	s := defaultServer(t)
	acme := s.signup(t, "ana@acme.com", "acme")
	globex := s.signup(t, "bob@globex.com", "globex")
	s.createInvoice(t, acme.Token, "A-1")
	s.createInvoice(t, acme.Token, "A-2")
	s.createInvoice(t, globex.Token, "G-1")

	dashboard := func(host, token string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "http://"+host+"/dashboard", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
		}
		return s.do(t, req)
	}

	t.Run("host sin tenant muestra la landing", func(t *testing.T) {
		for _, host := range []string{testBaseDomain, "desconocido." + testBaseDomain, "127.0.0.1:8080"} {
			resp := dashboard(host, "")
			require.Equal(t, fiber.StatusOK, resp.StatusCode, host)
			var out apphttp.LandingResponse
			decode(t, resp, &out)
			assert.NotEmpty(t, out.Message)
		}
	})
	t.Run("sin sesión redirige a login", func(t *testing.T) {
		resp := dashboard("acme."+testBaseDomain, "")
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, apphttp.LoginPath, resp.Header.Get("Location"))
	})
	t.Run("sesión de otro tenant redirige a login", func(t *testing.T) {
		resp := dashboard("acme."+testBaseDomain, globex.Token)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, apphttp.LoginPath, resp.Header.Get("Location"))
	})
	t.Run("sesión del tenant del host", func(t *testing.T) {
		resp := dashboard("acme."+testBaseDomain+":8080", acme.Token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out apphttp.DashboardResponse
		decode(t, resp, &out)
		assert.Equal(t, acme.Tenant.ID, out.Tenant.ID)
		assert.Equal(t, acme.User.ID, out.UserID)

		assert.EqualValues(t, 2, out.Invoices.Total)
		require.Len(t, out.Invoices.Invoices, 2)
		assert.Equal(t, "A-2", out.Invoices.Invoices[0].Number, "más reciente primero")
		assert.Equal(t, "A-1", out.Invoices.Invoices[1].Number)
		for _, inv := range out.Invoices.Invoices {
			assert.Equal(t, acme.Tenant.ID, inv.TenantID)
		}
	})
	t.Run("el otro tenant solo ve lo suyo", func(t *testing.T) {
		resp := dashboard("globex."+testBaseDomain, globex.Token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out apphttp.DashboardResponse
		decode(t, resp, &out)
		require.Len(t, out.Invoices.Invoices, 1)
		assert.Equal(t, "G-1", out.Invoices.Invoices[0].Number)
	})
}

func TestDashboard_XForwardedHostSoloDeProxiesConfiables(t *testing.T) {
	forwarded := func(s *testServer) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "http://desconocido."+testBaseDomain+"/dashboard", nil)
		req.Header.Set(fiber.HeaderXForwardedHost, "acme."+testBaseDomain)
		return s.do(t, req)
	}

	t.Run("cliente directo no elige el tenant", func(t *testing.T) {
		s := defaultServer(t)
		s.signup(t, "ana@acme.com", "acme")

		resp := forwarded(s)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out apphttp.LandingResponse
		decode(t, resp, &out)
		assert.NotEmpty(t, out.Message)
	})
	t.Run("proxy confiable reenvía el host", func(t *testing.T) {
		// app.Test conecta desde 0.0.0.0
		s := newServerBehindProxies(t, fakeText{text: "Invoice INV-1"}, &fakeLLM{}, time.Second, []string{"0.0.0.0"})
		s.signup(t, "ana@acme.com", "acme")

		resp := forwarded(s)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, apphttp.LoginPath, resp.Header.Get("Location"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := defaultServer(t)
	s.do(t, httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil))

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_http_requests_total{method="GET",route="/api/healthcheck",status="200"} 1`)
}

func TestMetrics_PanicoSeRegistraComo500(t *testing.T) {
	s := defaultServer(t)
	s.app.Get("/explota", func(*fiber.Ctx) error { panic("fallo inesperado") })

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/explota", nil))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_http_requests_total{method="GET",route="/explota",status="500"} 1`)
}

func TestRutaInexistente(t *testing.T) {
	s := defaultServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/no-existe", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "NOT_FOUND", e.Code)
}
