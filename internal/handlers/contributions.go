package handlers

import (
	"time"

	"github.com/gamefund/backend/internal/middleware"
	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContributionsHandler struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
	Groups *GroupsHandler
}

func NewContributionsHandler(db *gorm.DB, ledgerSvc *services.LedgerService, groups *GroupsHandler) *ContributionsHandler {
	return &ContributionsHandler{DB: db, Ledger: ledgerSvc, Groups: groups}
}

type createContributionRequest struct {
	GroupID        uuid.UUID       `json:"groupID"`
	ContributorID  *uuid.UUID      `json:"contributorID"`
	Amount         decimal.Decimal `json:"amount"`
	Description    *string         `json:"description"`
	Date           *string         `json:"date"`
	PaymentMethod  *string         `json:"paymentMethod"`
	TransactionRef *string         `json:"transactionRef"`
}

// Create records a contribution. Members record their own; admins may
// record on behalf of any member.
func (h *ContributionsHandler) Create(c *fiber.Ctx) error {
	var req createContributionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.GroupID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "groupID is required")
	}

	actor, actorMember, err := h.Groups.requireMembership(c, req.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	contributorID := actor.ID
	if req.ContributorID != nil && *req.ContributorID != actor.ID {
		if !actorMember.IsAdmin {
			return utils.Error(c, fiber.StatusForbidden, "only group admins can record contributions for other members")
		}
		contributorID = *req.ContributorID
	}

	date := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, err.Error())
		}
		date = parsed
	}

	contribution, err := h.Ledger.RecordContribution(c.Context(), services.RecordContributionInput{
		GroupID:        req.GroupID,
		ContributorID:  contributorID,
		RecordedByID:   actor.ID,
		Amount:         req.Amount,
		Description:    req.Description,
		Date:           date,
		PaymentMethod:  req.PaymentMethod,
		TransactionRef: req.TransactionRef,
	})
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "contribution_recorded", map[string]interface{}{
		"group_id":        req.GroupID,
		"contribution_id": contribution.ID,
		"amount":          contribution.Amount.String(),
	})
	return utils.Success(c, fiber.StatusCreated, contribution)
}

func (h *ContributionsHandler) ListByGroup(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.Groups.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	params := utils.ParsePagination(c)

	query := h.DB.Model(&models.Contribution{}).Where("group_id = ?", groupID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondLedgerError(c, err)
	}

	var contributions []models.Contribution
	err = utils.ApplyPagination(query.Preload("Contributor").Order("date DESC"), params).
		Find(&contributions).Error
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Paginated(c, contributions, params.Page, params.Limit, total)
}

// ListMine returns the caller's contributions across all groups.
func (h *ContributionsHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var contributions []models.Contribution
	err := h.DB.Preload("Group").
		Where("contributor_id = ?", user.ID).
		Order("date DESC").
		Find(&contributions).Error
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, contributions)
}

func (h *ContributionsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	contribution, err := h.Ledger.Contribution(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, _, err := h.Groups.requireMembership(c, contribution.GroupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	status := models.ContributionStatus(c.Params("status"))
	contribution, err = h.Ledger.SetContributionStatus(c.Context(), id, status)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "contribution_status_updated", map[string]interface{}{
		"contribution_id": id,
		"status":          status,
	})
	return utils.Success(c, fiber.StatusOK, contribution)
}

// Delete removes a contribution. The recorder or a group admin only.
func (h *ContributionsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	contribution, err := h.Ledger.Contribution(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, actorMember, err := h.Groups.requireMembership(c, contribution.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if contribution.RecordedByID != actor.ID && !actorMember.IsAdmin {
		return utils.Error(c, fiber.StatusForbidden, "only the recorder or a group admin can delete a contribution")
	}

	if err := h.Ledger.DeleteContribution(c.Context(), id); err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "contribution_deleted", map[string]interface{}{"contribution_id": id})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
