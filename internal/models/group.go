package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Group struct {
	BaseModel
	Name        string  `json:"name" gorm:"type:varchar(150);not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`
	// TargetAmount is the funding goal the group saves toward. Monetary
	// columns are fixed-precision decimals, never floats.
	TargetAmount decimal.Decimal `json:"targetAmount" gorm:"type:decimal(18,2);not null;default:0"`
	Currency     string          `json:"currency" gorm:"type:varchar(3);not null;default:'EUR'"`
	// DueDay is the day of month (1-28) a periodic contribution is
	// expected by. Nil means the group has no enforced schedule.
	DueDay   *int      `json:"dueDay,omitempty" gorm:"check:due_day IS NULL OR (due_day >= 1 AND due_day <= 28)"`
	IsActive bool      `json:"isActive" gorm:"not null;default:true"`
	OwnerID  uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`

	Owner   User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}
