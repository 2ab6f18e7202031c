package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Kjfer/peri-craft-campus-sub000/exchange"
)

type ExchangeController struct {
	Rates *exchange.Service
}

func NewExchangeController(rates *exchange.Service) *ExchangeController {
	return &ExchangeController{Rates: rates}
}

func (ec *ExchangeController) Get(c *fiber.Ctx) error {
	rate := ec.Rates.GetRate(c.Context(), "USD", "PEN")
	snap := ec.Rates.CacheSnapshot("USD", "PEN")

	return c.JSON(fiber.Map{
		"success":    true,
		"base":       "USD",
		"quote":      "PEN",
		"rate":       rate,
		"cached":     snap.Cached,
		"fetched_at": snap.FetchedAt,
	})
}

// Refresh bypasses the cache TTL; admin only.
func (ec *ExchangeController) Refresh(c *fiber.Ctx) error {
	rate := ec.Rates.ForceRefresh(c.Context(), "USD", "PEN")

	return c.JSON(fiber.Map{
		"success": true,
		"base":    "USD",
		"quote":   "PEN",
		"rate":    rate,
	})
}
