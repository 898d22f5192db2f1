package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/docs"
	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/application/billing"
	"github.com/jhoicas/invoicing-api/internal/application/invoicing"
	"github.com/jhoicas/invoicing-api/internal/application/ocr"
	"github.com/jhoicas/invoicing-api/internal/application/tenancy"
	infraai "github.com/jhoicas/invoicing-api/internal/infrastructure/ai"
	infrapdf "github.com/jhoicas/invoicing-api/internal/infrastructure/pdf"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/ubl"
	httpRouter "github.com/jhoicas/invoicing-api/internal/interfaces/http"
	"github.com/jhoicas/invoicing-api/pkg/config"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// @title                       Invoicing API
// @version                     1.0
// @description                 API multi-tenant de facturación: facturas, OCR de PDFs, PDF y UBL.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	metrics := httpRouter.NewMetrics(cfg.Metrics.Prefix)

	// Un único *gorm.DB sobre el pool; el plugin de tenant filtra todas las sentencias.
	db, err := postgres.NewGorm(pool, log.Named("gorm"), func(table string, err error) {
		metrics.TenantScopeDenied(table, err)
		log.Warn().Str("table", table).Err(err).Msg("sentencia rechazada por el filtro de tenant")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar GORM")
	}
	if cfg.App.Env == "development" {
		applied, err := postgres.NewMigrator(db, log).Up(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Strs("applied", applied).Msg("migraciones al día")
	}

	tenantRepo := postgres.NewTenantRepository(db)
	userRepo := postgres.NewUserRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	txRunner := postgres.NewTxRunner(db)

	authUC := auth.NewAuthUseCase(txRunner, userRepo, tenantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	invoiceUC := invoicing.NewInvoiceUseCase(invoiceRepo)

	extractor := infraai.NewExtractor(cfg.AI)
	if extractor.Provider() == "" {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("proveedor LLM sin API key: /api/ocr-invoice responderá 503")
	}
	ocrUC := ocr.NewOCRUseCase(infrapdf.NewTextExtractor(), extractor, cfg.AI.Timeout)

	// PDF y UBL de una factura
	pdfUC := billing.NewPDFUseCase(invoiceRepo, tenantRepo, infrapdf.NewInvoiceGenerator(cfg.Docs.Language))
	ublUC := billing.NewUBLUseCase(invoiceRepo, tenantRepo, ubl.NewXMLBuilder(cfg.Docs.Currency), ubl.Digest)

	app := fiber.New(httpRouter.ServerConfig(cfg.App.Name, cfg.Docs.MaxUploadBytes, cfg.HTTP.TrustedProxies))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		InvoiceUC:    invoiceUC,
		OCRUC:        ocrUC,
		PDFUC:        pdfUC,
		UBLUC:        ublUC,
		Resolver:     tenancy.NewResolver(tenantRepo, cfg.Tenancy.BaseDomain),
		Log:          log.Named("http"),
		Metrics:      metrics,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.Secure,
		SessionTTL:   time.Duration(cfg.JWT.Expiration) * time.Minute,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FilePath:    "./docs/swagger.json",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Invoicing API",
	}))

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
