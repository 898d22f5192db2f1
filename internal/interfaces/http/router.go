package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/application/ocr"
	"github.com/jhoicas/invoicing-api/internal/application/tenancy"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// RouterDeps dependencias para el router. Log y Metrics pueden ser nil.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	InvoiceUC *invoicing.InvoiceUseCase
	OCRUC     *ocr.OCRUseCase
	PDFUC     *billing.PDFUseCase
	UBLUC     *billing.UBLUseCase
	Resolver  *tenancy.Resolver
	Log       *logger.Logger
	Metrics   *Metrics

	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// ServerConfig configuración de fiber de la API. X-Forwarded-Host y demás cabeceras de proxy
// solo se aceptan si la conexión viene de trustedProxies; el dashboard resuelve el tenant con c.Hostname().
func ServerConfig(name string, bodyLimit int, trustedProxies []string) fiber.Config {
	return fiber.Config{
		AppName:                 name,
		ReadTimeout:             time.Second * 10,
		WriteTimeout:            time.Second * 30,
		IdleTimeout:             time.Second * 60,
		BodyLimit:               bodyLimit,
		ErrorHandler:            ErrorHandler,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          trustedProxies,
	}
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New(requestid.Config{ContextKey: LocalRequestID}))
	app.Use(AccessLog(deps.Log))
	if deps.Metrics != nil {
		// Antes de recover, para contar también las peticiones que terminan en pánico.
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Get("/health", Liveness)

	// Dashboard por subdominio
	dashboard := NewDashboardHandler(deps.Resolver, deps.AuthUC, deps.InvoiceUC, deps.CookieName)
	app.Get("/dashboard", dashboard.Show)

	api := app.Group("/api")
	api.Get("/healthcheck", Health)

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, CookieConfig{Name: deps.CookieName, Secure: deps.CookieSecure, TTL: deps.SessionTTL})
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)

	// Rutas protegidas (Bearer Token o cookie de sesión)
	protected := api.Group("", AuthMiddleware(deps.AuthUC, deps.CookieName))

	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.UBLUC, deps.Metrics)
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Get("/:id/ubl", invoiceHandler.UBL)

	documentHandler := NewDocumentHandler(deps.OCRUC, deps.PDFUC, deps.Metrics)
	protected.Post("/ocr-invoice", documentHandler.ExtractInvoice)
	protected.Post("/template-ocr", documentHandler.DescribeTemplate)
	protected.Get("/generate-pdf", documentHandler.GeneratePDF)
}
