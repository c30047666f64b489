package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitmania/gymdesk/internal/pkg/statistics"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
)

// HandleDashboard returns the owner's stat tiles: member counts, arrears
// counts and this month's collected fees.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	data, err := statistics.GetDashboard(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load dashboard")
	}

	return c.JSON(data)
}
