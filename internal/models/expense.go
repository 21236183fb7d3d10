package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseStatus string

const (
	ExpenseStatusProposed  ExpenseStatus = "proposed"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusRejected  ExpenseStatus = "rejected"
	ExpenseStatusCompleted ExpenseStatus = "completed"
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

func IsValidExpenseStatus(s ExpenseStatus) bool {
	switch s {
	case ExpenseStatusProposed, ExpenseStatusApproved, ExpenseStatusRejected,
		ExpenseStatusCompleted, ExpenseStatusCancelled:
		return true
	default:
		return false
	}
}

// Expense is money spent out of a group's pooled funds. Every expense
// starts as proposed; admins move it through the status lifecycle.
type Expense struct {
	BaseModel
	GroupID     uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index"`
	CreatedByID uuid.UUID `json:"createdByID" gorm:"type:uuid;not null"`
	// PaidByID is who actually disbursed the funds, which may differ
	// from the creator of the record.
	PaidByID    uuid.UUID       `json:"paidByID" gorm:"type:uuid;not null;index"`
	Title       string          `json:"title" gorm:"type:varchar(150);not null"`
	Description *string         `json:"description,omitempty" gorm:"type:text"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	Date        time.Time       `json:"date" gorm:"not null;index"`
	Status      ExpenseStatus   `json:"status" gorm:"type:varchar(20);not null;default:'proposed';index"`

	// ReceiptURL is an externally supplied link; ReceiptKey points at an
	// object uploaded to our own bucket. At most one is normally set.
	ReceiptURL *string `json:"receiptURL,omitempty" gorm:"type:text"`
	ReceiptKey *string `json:"receiptKey,omitempty" gorm:"type:text"`

	Group     Group `json:"-" gorm:"foreignKey:GroupID"`
	CreatedBy User  `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	PaidBy    User  `json:"paidBy,omitempty" gorm:"foreignKey:PaidByID"`
}
