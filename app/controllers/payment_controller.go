package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/app/repository"
	"github.com/fitmania/gymdesk/internal/pkg/feecycle"
	"github.com/fitmania/gymdesk/internal/pkg/statistics"
)

// HandleCreatePayment marks one fee cycle as paid. The cycle is identified
// by its due date, which must be a real cycle date for this member and must
// already have fallen due; each cycle can be paid exactly once.
func HandleCreatePayment(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	var req struct {
		CycleDueDate string `json:"cycle_due_date"`
		Method       string `json:"method"`
		Note         string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	due, err := feecycle.ParseDate(req.CycleDueDate)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", "cycle_due_date must be a valid YYYY-MM-DD date")
	}

	today := feecycle.Normalize(time.Now())

	// The due date has to be one of the member's generated cycle dates, not
	// just any date in the past.
	if !isCycleDate(member.JoinDate, due, today) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_cycle", "This date is not a fee cycle for this member")
	}

	if !feecycle.Payable(due, today) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "not_due_yet", "This cycle is not due yet")
	}

	method := req.Method
	switch method {
	case "":
		method = models.PAYMENT_METHOD_CASH
	case models.PAYMENT_METHOD_CASH, models.PAYMENT_METHOD_BANK:
	default:
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", "method must be cash or bank")
	}

	payRepo := repository.GetGlobalFactory().GetPaymentRepository()
	exists, err := payRepo.ExistsForCycle(member.ID, due)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check payment")
	}
	if exists {
		return jsonError(c, fiber.StatusConflict, "already_paid", "This cycle is already marked as paid")
	}

	payment := &models.Payment{
		MemberID:     member.ID,
		CycleDueDate: due,
		Amount:       member.MonthlyFee,
		Method:       method,
		Note:         req.Note,
	}
	if err := payRepo.Create(payment); err != nil {
		// The unique index can still fire under two concurrent mark-paid
		// clicks; treat it the same as the pre-check.
		if isDuplicateKeyErr(err) {
			return jsonError(c, fiber.StatusConflict, "already_paid", "This cycle is already marked as paid")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to record payment")
	}

	statistics.InvalidateDashboard(member.OwnerID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment": fiber.Map{
			"id":             payment.ID,
			"cycle_due_date": feecycle.FormatDate(payment.CycleDueDate),
			"amount":         payment.Amount,
			"method":         payment.Method,
			"note":           payment.Note,
			"paid_at":        payment.PaidAt.UTC().Format(time.RFC3339),
		},
	})
}

// isCycleDate reports whether due is one of the member's cycle due dates up
// to one month past today.
func isCycleDate(join, due, today time.Time) bool {
	key := feecycle.FormatDate(due)
	for _, d := range feecycle.Schedule(join, feecycle.AddMonths(today, 1)) {
		if feecycle.FormatDate(d) == key {
			return true
		}
	}
	return false
}
