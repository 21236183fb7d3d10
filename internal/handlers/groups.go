package handlers

import (
	"time"

	"github.com/gamefund/backend/internal/ledger"
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

type GroupsHandler struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
}

func NewGroupsHandler(db *gorm.DB, ledgerSvc *services.LedgerService) *GroupsHandler {
	return &GroupsHandler{DB: db, Ledger: ledgerSvc}
}

// requireMembership loads the caller's membership in a group, or fails
// with AuthorizationError. adminOnly additionally requires the group
// admin flag or ownership.
func (h *GroupsHandler) requireMembership(c *fiber.Ctx, groupID uuid.UUID, adminOnly bool) (*models.User, *models.GroupMember, error) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return nil, nil, &ledger.AuthorizationError{Msg: "unauthorized"}
	}

	group, err := h.Ledger.Group(c.Context(), groupID)
	if err != nil {
		return nil, nil, err
	}

	member, err := h.Ledger.Membership(c.Context(), groupID, user.ID)
	if err != nil || !member.IsActive {
		return nil, nil, &ledger.AuthorizationError{Msg: "you are not a member of this group"}
	}

	if adminOnly && !member.IsAdmin && group.OwnerID != user.ID {
		return nil, nil, &ledger.AuthorizationError{Msg: "group admin access required"}
	}

	return user, member, nil
}

type createGroupRequest struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Currency     string          `json:"currency"`
	DueDay       *int            `json:"dueDay"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Ledger.CreateGroup(c.Context(), user.ID, services.CreateGroupInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Currency:     req.Currency,
		DueDay:       req.DueDay,
	})
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(user.ID.String(), "group_created", map[string]interface{}{
		"group_id": group.ID,
		"name":     group.Name,
	})
	return utils.Success(c, fiber.StatusCreated, group)
}

// List returns the groups the caller is an active member of.
func (h *GroupsHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var groups []models.Group
	err := h.DB.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND group_members.is_active = ? AND groups.is_active = ?", user.ID, true, true).
		Order("groups.created_at DESC").
		Find(&groups).Error
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	group, err := h.Ledger.Group(c.Context(), groupID)
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, group)
}

type updateGroupRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	TargetAmount *decimal.Decimal `json:"targetAmount"`
	DueDay       *int             `json:"dueDay"`
	ClearDueDay  bool             `json:"clearDueDay"`
}

func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	user, _, err := h.requireMembership(c, groupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var req updateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Ledger.UpdateGroup(c.Context(), groupID, services.UpdateGroupInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		DueDay:       req.DueDay,
		ClearDueDay:  req.ClearDueDay,
	})
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(user.ID.String(), "group_updated", map[string]interface{}{"group_id": groupID})
	return utils.Success(c, fiber.StatusOK, group)
}

// Delete deactivates a group. Owner only; history stays readable.
func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	group, err := h.Ledger.Group(c.Context(), groupID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if group.OwnerID != user.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the group owner can delete the group")
	}

	if err := h.Ledger.DeactivateGroup(c.Context(), groupID); err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(user.ID.String(), "group_deactivated", map[string]interface{}{"group_id": groupID})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// Summary serves the derived financial view: totals, balance, progress
// and the next due date.
func (h *GroupsHandler) Summary(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	summary, err := h.Ledger.Summary(c.Context(), groupID, time.Now())
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, summary)
}
