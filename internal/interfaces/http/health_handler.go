package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthResponse respuesta de /api/healthcheck.
type HealthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /api/healthcheck [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{OK: true, Time: time.Now().UTC().Format(time.RFC3339)})
}

// Liveness responde a /health para balanceadores y orquestadores.
func Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
