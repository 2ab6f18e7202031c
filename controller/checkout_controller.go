package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/service"
)

type CheckoutController struct {
	Checkout   *service.CheckoutService
	Reconciler *service.ReconcileService
}

func NewCheckoutController(checkout *service.CheckoutService, reconciler *service.ReconcileService) *CheckoutController {
	return &CheckoutController{Checkout: checkout, Reconciler: reconciler}
}

func (cc *CheckoutController) Start(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body struct {
		CartItems     []model.CartItem `json:"cart_items"`
		PaymentMethod string           `json:"payment_method"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid payload"})
	}

	result, err := cc.Checkout.StartCheckout(c.Context(), userID, body.CartItems, body.PaymentMethod)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"success":    true,
		"order":      result.Order,
		"payment_id": result.Payment.ID,
		"next_step":  result.NextStep,
	})
}

func (cc *CheckoutController) ConfirmPayment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body struct {
		OrderID       uint   `json:"order_id"`
		TransactionID string `json:"transaction_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid payload"})
	}

	result, err := cc.Reconciler.ConfirmManual(c.Context(), userID, body.OrderID, body.TransactionID)
	if err != nil {
		return serviceError(c, err)
	}

	enrolled := result.EnrolledCourses
	if enrolled == nil {
		enrolled = []uint{}
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"order":            result.Order,
		"payment_status":   result.Payment.Status,
		"enrolled_courses": enrolled,
	})
}

// serviceError maps service sentinels onto HTTP codes, mirroring the
// shape every checkout/payment endpoint answers with.
func serviceError(c *fiber.Ctx, err error) error {
	code := 500
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrUnknownPaymentMethod),
		errors.Is(err, service.ErrMissingTransactionID):
		code = 400
	case errors.Is(err, service.ErrNotOrderOwner):
		code = 403
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrCourseUnavailable):
		code = 404
	case errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrDuplicatePendingOrder),
		errors.Is(err, service.ErrOrderAlreadyProcessed):
		code = 409
	case errors.Is(err, service.ErrMethodNotEligible),
		errors.Is(err, service.ErrNotManualPayment):
		code = 422
	}

	if code == 500 {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
}
