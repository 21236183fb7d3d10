package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gamefund/backend/internal/ledger"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC 3339 or YYYY-MM-DD", value)
}

// respondLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Anything untyped is a 500 and gets logged; the client only sees a
// generic message.
func respondLedgerError(c *fiber.Ctx, err error) error {
	var validation *ledger.ValidationError
	if errors.As(err, &validation) {
		return utils.Error(c, fiber.StatusBadRequest, validation.Error())
	}
	var duplicate *ledger.DuplicateMemberError
	if errors.As(err, &duplicate) {
		return utils.Error(c, fiber.StatusBadRequest, duplicate.Error())
	}
	var transition *ledger.InvalidTransitionError
	if errors.As(err, &transition) {
		return utils.Error(c, fiber.StatusBadRequest, transition.Error())
	}
	var missing *ledger.NotFoundError
	if errors.As(err, &missing) {
		return utils.Error(c, fiber.StatusNotFound, missing.Error())
	}
	var forbidden *ledger.AuthorizationError
	if errors.As(err, &forbidden) {
		return utils.Error(c, fiber.StatusForbidden, forbidden.Error())
	}

	details := map[string]interface{}{
		"path":   c.Path(),
		"method": c.Method(),
	}
	if userID := logger.GetUserIDFromContext(c); userID != nil {
		logger.ErrorWithUser(*userID, "request_failed", err, details)
	} else {
		logger.Error("request_failed", err, details)
	}
	return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
}
