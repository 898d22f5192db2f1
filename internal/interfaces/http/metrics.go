package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/invoicing-api/internal/domain"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
)

// Metrics colectores Prometheus de la API. Cada instancia tiene su propio registry.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	denials   *prometheus.CounterVec
	documents *prometheus.CounterVec
}

// NewMetrics registra los colectores con el prefijo dado (ej. "ebilling").
func NewMetrics(prefix string) *Metrics {
	if prefix == "" {
		prefix = "ebilling"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total de peticiones HTTP",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_tenant_scope_denials_total",
			Help: "Sentencias rechazadas por el filtro de tenant",
		}, []string{"table", "reason"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_documents_total",
			Help: "Documentos procesados (ocr, template, pdf, ubl) por resultado",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.denials, m.documents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware mide cada petición por método, ruta registrada y status.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			// Igual que AccessLog: el status registrado es el de la respuesta final, pánicos incluidos.
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		labels := []string{c.Method(), route, strconv.Itoa(status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.duration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return nil
	}
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// TenantScopeDenied cuenta un rechazo del filtro de tenant. Tiene la firma de postgres.DenyFunc.
func (m *Metrics) TenantScopeDenied(table string, err error) {
	reason := "other"
	switch {
	case errors.Is(err, postgres.ErrCrossTenantWrite):
		reason = "cross_tenant_write"
	case errors.Is(err, postgres.ErrUnscopableStatement):
		reason = "unscopable"
	case errors.Is(err, domain.ErrNoTenantContext):
		reason = "no_tenant"
	}
	m.denials.WithLabelValues(table, reason).Inc()
}

// Document cuenta un documento procesado; outcome es "ok" o el código de error.
func (m *Metrics) Document(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		_, outcome, _ = errorStatus(err)
	}
	m.documents.WithLabelValues(kind, outcome).Inc()
}
