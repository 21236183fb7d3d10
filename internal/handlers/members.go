package handlers

import (
	"time"

	"github.com/gamefund/backend/internal/ledger"
	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembersHandler struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
	Groups *GroupsHandler
}

func NewMembersHandler(db *gorm.DB, ledgerSvc *services.LedgerService, groups *GroupsHandler) *MembersHandler {
	return &MembersHandler{DB: db, Ledger: ledgerSvc, Groups: groups}
}

// memberView decorates a membership row with its derived contribution
// schedule state.
type memberView struct {
	*models.GroupMember
	ContributionStatus string `json:"contributionStatus"`
	StatusDetail       string `json:"contributionStatusDetail,omitempty"`
}

func newMemberView(m *models.GroupMember) memberView {
	return memberView{
		GroupMember:        m,
		ContributionStatus: string(ledger.StatusOf(m)),
		StatusDetail:       ledger.StatusDetail(m),
	}
}

func (h *MembersHandler) List(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.Groups.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	var members []models.GroupMember
	err = h.DB.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_date ASC").
		Find(&members).Error
	if err != nil {
		return respondLedgerError(c, err)
	}

	views := make([]memberView, 0, len(members))
	for i := range members {
		views = append(views, newMemberView(&members[i]))
	}
	return utils.Success(c, fiber.StatusOK, views)
}

type addMemberRequest struct {
	UserID                *uuid.UUID `json:"userID"`
	Email                 *string    `json:"email"`
	IsAdmin               bool       `json:"isAdmin"`
	ContributionStartDate *string    `json:"contributionStartDate"`
}

func (h *MembersHandler) Add(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	actor, _, err := h.Groups.requireMembership(c, groupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := h.resolveUser(req.UserID, req.Email)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var startDate *time.Time
	if req.ContributionStartDate != nil {
		parsed, err := parseDate(*req.ContributionStartDate)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, err.Error())
		}
		startDate = &parsed
	}

	member, err := h.Ledger.AddMember(c.Context(), groupID, userID, req.IsAdmin, startDate)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "member_added", map[string]interface{}{
		"group_id": groupID,
		"user_id":  userID,
	})
	return utils.Success(c, fiber.StatusCreated, newMemberView(member))
}

func (h *MembersHandler) resolveUser(id *uuid.UUID, email *string) (uuid.UUID, error) {
	if id != nil {
		return *id, nil
	}
	if email == nil || *email == "" {
		return uuid.Nil, ledger.NewValidationError("userID or email is required")
	}
	var user models.User
	if err := h.DB.First(&user, "email = ?", *email).Error; err != nil {
		return uuid.Nil, &ledger.NotFoundError{Resource: "user"}
	}
	return user.ID, nil
}

func (h *MembersHandler) Remove(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	memberID, err := parseUUIDParam(c, "memberId")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	actor, _, err := h.Groups.requireMembership(c, groupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	group, err := h.Ledger.Group(c.Context(), groupID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	member, err := h.Ledger.Member(c.Context(), groupID, memberID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if member.UserID == group.OwnerID {
		return utils.Error(c, fiber.StatusForbidden, "the group owner cannot be removed")
	}

	if err := h.Ledger.RemoveMember(c.Context(), groupID, memberID); err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "member_removed", map[string]interface{}{
		"group_id":  groupID,
		"member_id": memberID,
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}

type memberRoleRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

func (h *MembersHandler) UpdateRole(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	memberID, err := parseUUIDParam(c, "memberId")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	actor, _, err := h.Groups.requireMembership(c, groupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var req memberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.Ledger.SetMemberRole(c.Context(), groupID, memberID, req.IsAdmin)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "member_role_updated", map[string]interface{}{
		"group_id":  groupID,
		"member_id": memberID,
		"is_admin":  req.IsAdmin,
	})
	return utils.Success(c, fiber.StatusOK, newMemberView(member))
}

type pauseContributionRequest struct {
	MemberID       uuid.UUID `json:"memberID"`
	PauseStartDate string    `json:"pauseStartDate"`
	PauseEndDate   *string   `json:"pauseEndDate"`
	DurationMonths *int      `json:"durationMonths"`
}

// PauseContribution pauses a member's contribution schedule. The end
// date comes either explicitly or from a 1/3/6-month preset; neither
// means an indefinite pause.
func (h *MembersHandler) PauseContribution(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	actor, actorMember, err := h.Groups.requireMembership(c, groupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var req pauseContributionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.MemberID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "memberID is required")
	}

	target, err := h.Ledger.Member(c.Context(), groupID, req.MemberID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if !actorMember.IsAdmin && target.UserID != actor.ID {
		return utils.Error(c, fiber.StatusForbidden, "group admin access required")
	}

	if req.PauseStartDate == "" {
		return utils.Error(c, fiber.StatusBadRequest, "pauseStartDate is required")
	}
	start, err := parseDate(req.PauseStartDate)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var end *time.Time
	switch {
	case req.PauseEndDate != nil && *req.PauseEndDate != "":
		parsed, err := parseDate(*req.PauseEndDate)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, err.Error())
		}
		end = &parsed
	case req.DurationMonths != nil:
		preset, err := ledger.PauseEndFromPreset(*req.DurationMonths, start)
		if err != nil {
			return respondLedgerError(c, err)
		}
		end = &preset
	}

	member, err := h.Ledger.PauseContribution(c.Context(), groupID, req.MemberID, start, end, time.Now())
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "contribution_paused", map[string]interface{}{
		"group_id":  groupID,
		"member_id": req.MemberID,
	})
	return utils.Success(c, fiber.StatusOK, newMemberView(member))
}

func (h *MembersHandler) ResumeContribution(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	memberID, err := parseUUIDParam(c, "memberId")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	actor, actorMember, err := h.Groups.requireMembership(c, groupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	target, err := h.Ledger.Member(c.Context(), groupID, memberID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if !actorMember.IsAdmin && target.UserID != actor.ID {
		return utils.Error(c, fiber.StatusForbidden, "group admin access required")
	}

	member, err := h.Ledger.ResumeContribution(c.Context(), groupID, memberID)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "contribution_resumed", map[string]interface{}{
		"group_id":  groupID,
		"member_id": memberID,
	})
	return utils.Success(c, fiber.StatusOK, newMemberView(member))
}
