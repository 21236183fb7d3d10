package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupMember is the membership relationship between a user and a
// group. A user has at most one row per group; removal flips IsActive
// instead of deleting the row, so the unique index stays authoritative.
type GroupMember struct {
	BaseModel
	GroupID           uuid.UUID       `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	UserID            uuid.UUID       `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	IsAdmin           bool            `json:"isAdmin" gorm:"not null;default:false"`
	ContributionQuota decimal.Decimal `json:"contributionQuota" gorm:"type:decimal(18,2);not null;default:0"`
	IsActive          bool            `json:"isActive" gorm:"not null;default:true"`
	JoinedDate        time.Time       `json:"joinedDate" gorm:"not null"`

	ContributionStartDate *time.Time `json:"contributionStartDate,omitempty"`
	IsContributionPaused  bool       `json:"isContributionPaused" gorm:"not null;default:false"`
	PauseStartDate        *time.Time `json:"contributionPauseStartDate,omitempty"`
	// PauseEndDate is nil for an indefinite pause.
	PauseEndDate *time.Time `json:"contributionPauseEndDate,omitempty"`

	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group Group `json:"-" gorm:"foreignKey:GroupID"`
}
