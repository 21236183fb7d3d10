package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusPaid      ContributionStatus = "paid"
	ContributionStatusRejected  ContributionStatus = "rejected"
	ContributionStatusRefunded  ContributionStatus = "refunded"
	ContributionStatusCancelled ContributionStatus = "cancelled"
)

func IsValidContributionStatus(s ContributionStatus) bool {
	switch s {
	case ContributionStatusPending, ContributionStatusPaid, ContributionStatusRejected,
		ContributionStatusRefunded, ContributionStatusCancelled:
		return true
	default:
		return false
	}
}

// Contribution is money paid into a group by a member. The amount is
// immutable once recorded; only the status changes afterwards.
type Contribution struct {
	BaseModel
	GroupID uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index"`
	// ContributorID is the member the money came from; RecordedByID is
	// whoever entered it (an admin may record on a member's behalf).
	ContributorID  uuid.UUID          `json:"contributorID" gorm:"type:uuid;not null;index"`
	RecordedByID   uuid.UUID          `json:"recordedByID" gorm:"type:uuid;not null"`
	Amount         decimal.Decimal    `json:"amount" gorm:"type:decimal(18,2);not null"`
	Description    *string            `json:"description,omitempty" gorm:"type:text"`
	Date           time.Time          `json:"date" gorm:"not null;index"`
	PaymentMethod  *string            `json:"paymentMethod,omitempty" gorm:"type:varchar(50)"`
	TransactionRef *string            `json:"transactionRef,omitempty" gorm:"type:varchar(100)"`
	Status         ContributionStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	Group       Group `json:"-" gorm:"foreignKey:GroupID"`
	Contributor User  `json:"contributor,omitempty" gorm:"foreignKey:ContributorID"`
	RecordedBy  User  `json:"-" gorm:"foreignKey:RecordedByID"`
}
