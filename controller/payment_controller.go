package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
	"github.com/Kjfer/peri-craft-campus-sub000/service"
)

type PaymentController struct {
	Checkout *service.CheckoutService
	Payments repository.PaymentRepository
}

func NewPaymentController(checkout *service.CheckoutService, payments repository.PaymentRepository) *PaymentController {
	return &PaymentController{Checkout: checkout, Payments: payments}
}

// ProcessOrder drives the provider adapter for an already-created
// order: synchronous capture for cards, a redirect or instructions for
// the wallet flows.
func (pc *PaymentController) ProcessOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body struct {
		OrderID     uint                `json:"order_id"`
		PaymentData gateway.PaymentData `json:"payment_data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid payload"})
	}

	result, err := pc.Checkout.ProcessOrder(c.Context(), userID, body.OrderID, body.PaymentData)
	if err != nil {
		return serviceError(c, err)
	}

	resp := fiber.Map{
		"success":        result.Outcome.Success,
		"message":        result.Outcome.Message,
		"order":          result.Order,
		"payment_status": result.Payment.Status,
	}
	if result.Outcome.PaymentURL != "" {
		resp["payment_url"] = result.Outcome.PaymentURL
	}
	if result.EnrolledCourses != nil {
		resp["enrolled_courses"] = result.EnrolledCourses
	}

	return c.JSON(resp)
}

func (pc *PaymentController) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	payments, err := pc.Payments.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(payments)
}

func (pc *PaymentController) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	userID := c.Locals("user_id").(uint)

	payment, err := pc.Payments.FindByID(c.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "payment not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if payment.UserID != userID {
		return c.Status(403).JSON(fiber.Map{"error": "not the owner"})
	}

	return c.JSON(payment)
}
