package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gamefund/backend/internal/ledger"
	"github.com/gamefund/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PollService manages group polls and their votes. One vote per user
// per poll, backed by a unique index.
type PollService struct {
	DB *gorm.DB
}

func NewPollService(db *gorm.DB) *PollService {
	return &PollService{DB: db}
}

type CreatePollInput struct {
	GroupID     uuid.UUID
	CreatedByID uuid.UUID
	Question    string
	Description *string
	ExpiresAt   *time.Time
	Options     []string
}

func (s *PollService) CreatePoll(ctx context.Context, in CreatePollInput) (*models.Poll, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, ledger.NewValidationError("poll question is required")
	}
	if len(in.Options) < 2 {
		return nil, ledger.NewValidationError("a poll needs at least two options")
	}
	seen := map[string]bool{}
	for _, opt := range in.Options {
		text := strings.TrimSpace(opt)
		if text == "" {
			return nil, ledger.NewValidationError("poll options cannot be empty")
		}
		if seen[text] {
			return nil, ledger.NewValidationError("poll options must be unique")
		}
		seen[text] = true
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		return nil, ledger.NewValidationError("poll expiry must be in the future")
	}

	poll := models.Poll{
		GroupID:     in.GroupID,
		CreatedByID: in.CreatedByID,
		Question:    strings.TrimSpace(in.Question),
		Description: in.Description,
		ExpiresAt:   in.ExpiresAt,
		IsActive:    true,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		for _, opt := range in.Options {
			option := models.PollOption{PollID: poll.ID, Text: strings.TrimSpace(opt)}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
			poll.Options = append(poll.Options, option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &poll, nil
}

func (s *PollService) Poll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	var poll models.Poll
	err := s.DB.WithContext(ctx).Preload("Options").First(&poll, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "poll")
	}
	return &poll, nil
}

// PollWithResults loads a poll and fills in the per-option tallies.
func (s *PollService) PollWithResults(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	poll, err := s.Poll(ctx, id)
	if err != nil {
		return nil, err
	}

	for i := range poll.Options {
		var count int64
		err := s.DB.WithContext(ctx).Model(&models.PollVote{}).
			Where("option_id = ?", poll.Options[i].ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		poll.Options[i].VoteCount = count
	}
	return poll, nil
}

func (s *PollService) PollsForGroup(ctx context.Context, groupID uuid.UUID) ([]models.Poll, error) {
	var polls []models.Poll
	err := s.DB.WithContext(ctx).Preload("Options").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// Vote records a user's vote. Voting twice on the same poll or voting
// on an expired or closed poll fails.
func (s *PollService) Vote(ctx context.Context, pollID, optionID, userID uuid.UUID) (*models.PollVote, error) {
	poll, err := s.Poll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive {
		return nil, ledger.NewInvalidTransitionError("poll is closed")
	}
	if poll.ExpiresAt != nil && time.Now().After(*poll.ExpiresAt) {
		return nil, ledger.NewInvalidTransitionError("poll has expired")
	}

	optionBelongs := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			optionBelongs = true
			break
		}
	}
	if !optionBelongs {
		return nil, &ledger.NotFoundError{Resource: "poll option"}
	}

	vote := models.PollVote{PollID: pollID, OptionID: optionID, UserID: userID}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PollVote
		findErr := tx.First(&existing, "poll_id = ? AND user_id = ?", pollID, userID).Error
		if findErr == nil {
			return ledger.NewValidationError("you have already voted on this poll")
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		return tx.Create(&vote).Error
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (s *PollService) ClosePoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	poll, err := s.Poll(ctx, id)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive {
		return nil, ledger.NewInvalidTransitionError("poll is already closed")
	}
	if err := s.DB.WithContext(ctx).Model(poll).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	poll.IsActive = false
	return poll, nil
}

// DeletePoll removes a poll along with its options and votes.
func (s *PollService) DeletePoll(ctx context.Context, id uuid.UUID) error {
	poll, err := s.Poll(ctx, id)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", id).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", id).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(poll).Error
	})
}
