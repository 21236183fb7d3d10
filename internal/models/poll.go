package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Poll struct {
	BaseModel
	GroupID     uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index"`
	CreatedByID uuid.UUID  `json:"createdByID" gorm:"type:uuid;not null"`
	Question    string     `json:"question" gorm:"type:varchar(255);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsActive    bool       `json:"isActive" gorm:"not null;default:true"`

	Group     Group        `json:"-" gorm:"foreignKey:GroupID"`
	CreatedBy User         `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	Options   []PollOption `json:"options,omitempty" gorm:"foreignKey:PollID"`
}

type PollOption struct {
	BaseModel
	PollID uuid.UUID `json:"pollID" gorm:"type:uuid;not null;index"`
	Text   string    `json:"text" gorm:"type:varchar(255);not null"`

	Votes []PollVote `json:"-" gorm:"foreignKey:OptionID"`
	// VoteCount is derived at read time, never stored.
	VoteCount int64 `json:"voteCount" gorm:"-"`
}

// PollVote rows are written once and never updated, so the model skips
// BaseModel's update/soft-delete columns.
type PollVote struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PollID    uuid.UUID `json:"pollID" gorm:"type:uuid;not null;index;uniqueIndex:idx_poll_voter"`
	UserID    uuid.UUID `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_poll_voter"`
	OptionID  uuid.UUID `json:"optionID" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (v *PollVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
