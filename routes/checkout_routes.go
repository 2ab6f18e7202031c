package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Kjfer/peri-craft-campus-sub000/controller"
	"github.com/Kjfer/peri-craft-campus-sub000/middleware"
)

func RegisterCheckoutRoutes(
	app *fiber.App,
	authMiddleware fiber.Handler,
	cc *controller.CheckoutController,
	pc *controller.PaymentController,
	wc *controller.WebhookController,
	ec *controller.ExchangeController,
) {
	api := app.Group("/api")

	// =========================
	// CHECKOUT
	// =========================
	checkout := api.Group("/checkout")
	checkout.Post("/start", authMiddleware, cc.Start)
	checkout.Post("/confirm-payment", authMiddleware, cc.ConfirmPayment)

	// =========================
	// PAYMENTS
	// =========================
	payments := api.Group("/payments")
	payments.Post("/process-order", authMiddleware, pc.ProcessOrder)
	payments.Get("/", authMiddleware, pc.List)

	// provider callbacks: no auth, always answered 200
	payments.Post("/webhook/:provider", wc.Receive)

	payments.Get("/:id", authMiddleware, pc.Get)

	// =========================
	// EXCHANGE RATE
	// =========================
	api.Get("/exchange-rate", ec.Get)
	api.Post(
		"/exchange-rate/refresh",
		authMiddleware,
		middleware.RoleRequired("admin"),
		ec.Refresh,
	)
}
