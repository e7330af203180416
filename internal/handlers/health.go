package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// Counters exposes the live figures reported by the health check
type Counters struct {
	Sessions        func() int
	ActiveUsers     func() int
	Representatives func() (int64, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	counters Counters
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, counters Counters) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		counters: counters,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	stats := fiber.Map{}
	if h.counters.Sessions != nil {
		stats["sessions"] = h.counters.Sessions()
	}
	if h.counters.ActiveUsers != nil {
		stats["active_users"] = h.counters.ActiveUsers()
	}
	if h.counters.Representatives != nil {
		count, err := h.counters.Representatives()
		if err != nil {
			log.Printf("❌ Health check could not count representatives: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": "PV-COLLECT",
				"version": h.Version,
				"error":   "storage unavailable",
			})
		}
		stats["representatives"] = count
	}

	return c.JSON(fiber.Map{
		"status":  "OK",
		"service": "PV-COLLECT",
		"version": h.Version,
		"stats":   stats,
	})
}
