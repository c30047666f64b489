package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/app/repository"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

func jsonError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// isDuplicateKeyErr detects unique-constraint violations across GORM and the
// raw MySQL error (1062) so handlers can answer 409 with a specific message.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1062") || strings.Contains(msg, "Duplicate entry")
}

// requireMember loads a member by public UUID scoped to the authenticated
// owner, answering the standard error responses itself. The caller gets a
// nil member when a response has already been written.
func requireMember(c *fiber.Ctx) (*models.Member, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	memberUUID := c.Params("uuid")
	if memberUUID == "" {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Member UUID missing")
	}

	repo := repository.GetGlobalFactory().GetMemberRepository()
	member, err := repo.GetByUUID(userCtx.UserID, memberUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Member not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load member")
	}

	return member, nil
}
