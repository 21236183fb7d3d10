package handlers

import (
	"time"

	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PollsHandler struct {
	DB     *gorm.DB
	Polls  *services.PollService
	Groups *GroupsHandler
}

func NewPollsHandler(db *gorm.DB, polls *services.PollService, groups *GroupsHandler) *PollsHandler {
	return &PollsHandler{DB: db, Polls: polls, Groups: groups}
}

type createPollRequest struct {
	GroupID     uuid.UUID `json:"groupID"`
	Question    string    `json:"question"`
	Description *string   `json:"description"`
	ExpiresAt   *string   `json:"expiresAt"`
	Options     []string  `json:"options"`
}

func (h *PollsHandler) Create(c *fiber.Ctx) error {
	var req createPollRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.GroupID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "groupID is required")
	}

	actor, _, err := h.Groups.requireMembership(c, req.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, err := parseDate(*req.ExpiresAt)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, err.Error())
		}
		expiresAt = &parsed
	}

	poll, err := h.Polls.CreatePoll(c.Context(), services.CreatePollInput{
		GroupID:     req.GroupID,
		CreatedByID: actor.ID,
		Question:    req.Question,
		Description: req.Description,
		ExpiresAt:   expiresAt,
		Options:     req.Options,
	})
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "poll_created", map[string]interface{}{
		"group_id": req.GroupID,
		"poll_id":  poll.ID,
	})
	return utils.Success(c, fiber.StatusCreated, poll)
}

func (h *PollsHandler) ListByGroup(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.Groups.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	polls, err := h.Polls.PollsForGroup(c.Context(), groupID)
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, polls)
}

// Get serves a poll with its vote tallies.
func (h *PollsHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	poll, err := h.Polls.PollWithResults(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	if _, _, err := h.Groups.requireMembership(c, poll.GroupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, poll)
}

type voteRequest struct {
	OptionID uuid.UUID `json:"optionID"`
}

func (h *PollsHandler) Vote(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	poll, err := h.Polls.Poll(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, _, err := h.Groups.requireMembership(c, poll.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.OptionID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "optionID is required")
	}

	vote, err := h.Polls.Vote(c.Context(), id, req.OptionID, actor.ID)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "poll_vote_cast", map[string]interface{}{
		"poll_id":   id,
		"option_id": req.OptionID,
	})
	return utils.Success(c, fiber.StatusCreated, vote)
}

// Close ends voting on a poll. Creator or a group admin.
func (h *PollsHandler) Close(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	poll, err := h.Polls.Poll(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, actorMember, err := h.Groups.requireMembership(c, poll.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if poll.CreatedByID != actor.ID && !actorMember.IsAdmin {
		return utils.Error(c, fiber.StatusForbidden, "only the creator or a group admin can close a poll")
	}

	closed, err := h.Polls.ClosePoll(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "poll_closed", map[string]interface{}{"poll_id": id})
	return utils.Success(c, fiber.StatusOK, closed)
}

// Delete removes a poll. Creator or a group admin.
func (h *PollsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	poll, err := h.Polls.Poll(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, actorMember, err := h.Groups.requireMembership(c, poll.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if poll.CreatedByID != actor.ID && !actorMember.IsAdmin {
		return utils.Error(c, fiber.StatusForbidden, "only the creator or a group admin can delete a poll")
	}

	if err := h.Polls.DeletePoll(c.Context(), id); err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "poll_deleted", map[string]interface{}{"poll_id": id})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
