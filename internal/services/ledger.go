package services

import (
	"context"
	"errors"
	"time"

	"github.com/gamefund/backend/internal/ledger"
	"github.com/gamefund/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the composition root for the group financial
// ledger: it owns every mutation of groups, memberships, contributions
// and expenses, enforces the ledger invariants, and raises the typed
// errors from the ledger package. Each mutation runs as a single
// database transaction; authorization (admin/owner gating) is decided
// by the HTTP layer using the membership data this service exposes.
type LedgerService struct {
	DB *gorm.DB
	// DefaultCurrency is applied to groups created without one.
	DefaultCurrency string
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, DefaultCurrency: ledger.DefaultCurrency}
}

type CreateGroupInput struct {
	Name         string
	Description  *string
	TargetAmount decimal.Decimal
	Currency     string
	DueDay       *int
}

// CreateGroup creates a group and the implicit admin membership for
// its owner in one transaction.
func (s *LedgerService) CreateGroup(ctx context.Context, ownerID uuid.UUID, in CreateGroupInput) (*models.Group, error) {
	if in.Name == "" {
		return nil, ledger.NewValidationError("group name is required")
	}
	if in.TargetAmount.IsNegative() {
		return nil, ledger.NewValidationError("target amount cannot be negative")
	}
	if err := validateDueDay(in.DueDay); err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = s.DefaultCurrency
	}

	group := models.Group{
		Name:         in.Name,
		Description:  in.Description,
		TargetAmount: in.TargetAmount,
		Currency:     currency,
		DueDay:       in.DueDay,
		IsActive:     true,
		OwnerID:      ownerID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		member := models.GroupMember{
			GroupID:    group.ID,
			UserID:     ownerID,
			IsAdmin:    true,
			IsActive:   true,
			JoinedDate: time.Now().UTC(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

type UpdateGroupInput struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	DueDay       *int
	// ClearDueDay removes the schedule entirely; it wins over DueDay.
	ClearDueDay bool
}

func (s *LedgerService) UpdateGroup(ctx context.Context, groupID uuid.UUID, in UpdateGroupInput) (*models.Group, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, ledger.NewValidationError("group name cannot be empty")
		}
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.TargetAmount != nil {
		if in.TargetAmount.IsNegative() {
			return nil, ledger.NewValidationError("target amount cannot be negative")
		}
		updates["target_amount"] = *in.TargetAmount
	}
	if in.ClearDueDay {
		updates["due_day"] = nil
	} else if in.DueDay != nil {
		if err := validateDueDay(in.DueDay); err != nil {
			return nil, err
		}
		updates["due_day"] = *in.DueDay
	}

	if len(updates) == 0 {
		return nil, ledger.NewValidationError("no valid fields to update")
	}

	result := s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ? AND is_active = ?", groupID, true).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &ledger.NotFoundError{Resource: "group"}
	}

	return s.Group(ctx, groupID)
}

// DeactivateGroup soft-deactivates a group. Groups are never hard
// deleted; the history stays queryable.
func (s *LedgerService) DeactivateGroup(ctx context.Context, groupID uuid.UUID) error {
	result := s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ? AND is_active = ?", groupID, true).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &ledger.NotFoundError{Resource: "group"}
	}
	return nil
}

func (s *LedgerService) Group(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		return nil, notFound(err, "group")
	}
	return &group, nil
}

// Membership looks up the membership row for a user in a group. The
// HTTP layer uses it for admin gating.
func (s *LedgerService) Membership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.DB.WithContext(ctx).First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error
	if err != nil {
		return nil, notFound(err, "group member")
	}
	return &member, nil
}

func (s *LedgerService) Member(ctx context.Context, groupID, memberID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.DB.WithContext(ctx).First(&member, "id = ? AND group_id = ?", memberID, groupID).Error
	if err != nil {
		return nil, notFound(err, "group member")
	}
	return &member, nil
}

// AddMember adds a user to a group. The (user, group) pair is unique:
// adding an existing active member fails with DuplicateMemberError,
// while re-adding a previously removed member reactivates the old row
// with its schedule state reset.
func (s *LedgerService) AddMember(ctx context.Context, groupID, userID uuid.UUID, isAdmin bool, contributionStartDate *time.Time) (*models.GroupMember, error) {
	group, err := s.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, &ledger.NotFoundError{Resource: "group"}
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user")
	}

	var member models.GroupMember
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.GroupMember
		findErr := tx.First(&existing, "group_id = ? AND user_id = ?", groupID, userID).Error
		if findErr == nil {
			if existing.IsActive {
				return &ledger.DuplicateMemberError{UserID: userID, GroupID: groupID}
			}
			// Rejoining resets the contribution history.
			return tx.Model(&existing).Updates(map[string]interface{}{
				"is_admin":                isAdmin,
				"is_active":               true,
				"contribution_quota":      decimal.Zero,
				"joined_date":             time.Now().UTC(),
				"contribution_start_date": contributionStartDate,
				"is_contribution_paused":  false,
				"pause_start_date":        nil,
				"pause_end_date":          nil,
			}).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		existing = models.GroupMember{
			GroupID:               groupID,
			UserID:                userID,
			IsAdmin:               isAdmin,
			IsActive:              true,
			JoinedDate:            time.Now().UTC(),
			ContributionStartDate: contributionStartDate,
		}
		return tx.Create(&existing).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember marks a membership inactive. The transition is terminal
// for the contribution schedule; the row itself is kept.
func (s *LedgerService) RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	member, err := s.Member(ctx, groupID, memberID)
	if err != nil {
		return err
	}
	if !member.IsActive {
		return ledger.NewInvalidTransitionError("member is already inactive")
	}

	return s.DB.WithContext(ctx).Model(member).Update("is_active", false).Error
}

func (s *LedgerService) SetMemberRole(ctx context.Context, groupID, memberID uuid.UUID, isAdmin bool) (*models.GroupMember, error) {
	member, err := s.Member(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ledger.NewInvalidTransitionError("cannot change role of an inactive member")
	}

	if err := s.DB.WithContext(ctx).Model(member).Update("is_admin", isAdmin).Error; err != nil {
		return nil, err
	}
	member.IsAdmin = isAdmin
	return member, nil
}

// PauseContribution applies the Active -> Paused transition. A nil end
// date pauses indefinitely.
func (s *LedgerService) PauseContribution(ctx context.Context, groupID, memberID uuid.UUID, start time.Time, end *time.Time, now time.Time) (*models.GroupMember, error) {
	member, err := s.Member(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ledger.NewInvalidTransitionError("cannot pause an inactive member")
	}
	if member.IsContributionPaused {
		return nil, ledger.NewInvalidTransitionError("member contribution is already paused")
	}

	if err := ledger.ValidatePauseWindow(start, end, now); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Model(member).Updates(map[string]interface{}{
		"is_contribution_paused": true,
		"pause_start_date":       start,
		"pause_end_date":         end,
	}).Error
	if err != nil {
		return nil, err
	}

	member.IsContributionPaused = true
	member.PauseStartDate = &start
	member.PauseEndDate = end
	return member, nil
}

// ResumeContribution applies the Paused -> Active transition. Resume
// is always explicit; an elapsed pause window never resumes a member
// on its own.
func (s *LedgerService) ResumeContribution(ctx context.Context, groupID, memberID uuid.UUID) (*models.GroupMember, error) {
	member, err := s.Member(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ledger.NewInvalidTransitionError("cannot resume an inactive member")
	}
	if !member.IsContributionPaused {
		return nil, ledger.NewInvalidTransitionError("member contribution is not paused")
	}

	err = s.DB.WithContext(ctx).Model(member).Updates(map[string]interface{}{
		"is_contribution_paused": false,
		"pause_start_date":       nil,
		"pause_end_date":         nil,
	}).Error
	if err != nil {
		return nil, err
	}

	member.IsContributionPaused = false
	member.PauseStartDate = nil
	member.PauseEndDate = nil
	return member, nil
}

type RecordContributionInput struct {
	GroupID        uuid.UUID
	ContributorID  uuid.UUID
	RecordedByID   uuid.UUID
	Amount         decimal.Decimal
	Description    *string
	Date           time.Time
	PaymentMethod  *string
	TransactionRef *string
}

// RecordContribution creates a contribution in pending status. The
// amount is immutable afterwards; only the status can change.
func (s *LedgerService) RecordContribution(ctx context.Context, in RecordContributionInput) (*models.Contribution, error) {
	if !in.Amount.IsPositive() {
		return nil, ledger.NewValidationError("contribution amount must be positive")
	}

	group, err := s.Group(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, &ledger.NotFoundError{Resource: "group"}
	}

	membership, err := s.Membership(ctx, in.GroupID, in.ContributorID)
	if err != nil {
		return nil, err
	}
	if !membership.IsActive {
		return nil, ledger.NewValidationError("contributor is not an active member of this group")
	}

	contribution := models.Contribution{
		GroupID:        in.GroupID,
		ContributorID:  in.ContributorID,
		RecordedByID:   in.RecordedByID,
		Amount:         in.Amount,
		Description:    in.Description,
		Date:           in.Date,
		PaymentMethod:  in.PaymentMethod,
		TransactionRef: in.TransactionRef,
		Status:         models.ContributionStatusPending,
	}

	if err := s.DB.WithContext(ctx).Create(&contribution).Error; err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (s *LedgerService) Contribution(ctx context.Context, id uuid.UUID) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.DB.WithContext(ctx).First(&contribution, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "contribution")
	}
	return &contribution, nil
}

func (s *LedgerService) SetContributionStatus(ctx context.Context, id uuid.UUID, status models.ContributionStatus) (*models.Contribution, error) {
	if !models.IsValidContributionStatus(status) {
		return nil, ledger.NewValidationError("invalid contribution status")
	}

	contribution, err := s.Contribution(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(contribution).Update("status", status).Error; err != nil {
		return nil, err
	}
	contribution.Status = status
	return contribution, nil
}

func (s *LedgerService) DeleteContribution(ctx context.Context, id uuid.UUID) error {
	contribution, err := s.Contribution(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(contribution).Error
}

type RecordExpenseInput struct {
	GroupID     uuid.UUID
	CreatedByID uuid.UUID
	PaidByID    uuid.UUID
	Title       string
	Description *string
	Amount      decimal.Decimal
	Date        time.Time
	ReceiptURL  *string
}

// RecordExpense creates an expense. Every expense starts proposed
// regardless of the caller's role.
func (s *LedgerService) RecordExpense(ctx context.Context, in RecordExpenseInput) (*models.Expense, error) {
	if in.Title == "" {
		return nil, ledger.NewValidationError("expense title is required")
	}
	if !in.Amount.IsPositive() {
		return nil, ledger.NewValidationError("expense amount must be positive")
	}

	group, err := s.Group(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, &ledger.NotFoundError{Resource: "group"}
	}

	expense := models.Expense{
		GroupID:     in.GroupID,
		CreatedByID: in.CreatedByID,
		PaidByID:    in.PaidByID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		ReceiptURL:  in.ReceiptURL,
		Status:      models.ExpenseStatusProposed,
	}

	if err := s.DB.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *LedgerService) Expense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := s.DB.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "expense")
	}
	return &expense, nil
}

func (s *LedgerService) SetExpenseStatus(ctx context.Context, id uuid.UUID, status models.ExpenseStatus) (*models.Expense, error) {
	if !models.IsValidExpenseStatus(status) {
		return nil, ledger.NewValidationError("invalid expense status")
	}

	expense, err := s.Expense(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(expense).Update("status", status).Error; err != nil {
		return nil, err
	}
	expense.Status = status
	return expense, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	expense, err := s.Expense(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(expense).Error
}

func (s *LedgerService) SetExpenseReceiptKey(ctx context.Context, id uuid.UUID, key string) (*models.Expense, error) {
	expense, err := s.Expense(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(expense).Update("receipt_key", key).Error; err != nil {
		return nil, err
	}
	expense.ReceiptKey = &key
	return expense, nil
}

// GroupSummary is the full derived view served by the summary
// endpoint.
type GroupSummary struct {
	Group       *models.Group       `json:"group"`
	Totals      ledger.Summary      `json:"totals"`
	NextDueDate *ledger.DueDateInfo `json:"nextDueDate,omitempty"`
	MemberCount int64               `json:"memberCount"`
}

// Summary recomputes the group's financial state from its full
// contribution and expense collections. Nothing here is stored.
func (s *LedgerService) Summary(ctx context.Context, groupID uuid.UUID, now time.Time) (*GroupSummary, error) {
	group, err := s.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var contributions []models.Contribution
	if err := s.DB.WithContext(ctx).Where("group_id = ?", groupID).Find(&contributions).Error; err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := s.DB.WithContext(ctx).Where("group_id = ?", groupID).Find(&expenses).Error; err != nil {
		return nil, err
	}

	var memberCount int64
	if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Count(&memberCount).Error; err != nil {
		return nil, err
	}

	dueDate, err := ledger.DueDateFor(group.DueDay, now)
	if err != nil {
		return nil, err
	}

	return &GroupSummary{
		Group:       group,
		Totals:      ledger.Aggregate(group, contributions, expenses),
		NextDueDate: dueDate,
		MemberCount: memberCount,
	}, nil
}

// Balance returns just the money view of a group.
func (s *LedgerService) Balance(ctx context.Context, groupID uuid.UUID) (ledger.Money, error) {
	summary, err := s.Summary(ctx, groupID, time.Now())
	if err != nil {
		return ledger.Money{}, err
	}
	return summary.Totals.Balance, nil
}

func validateDueDay(dueDay *int) error {
	if dueDay == nil {
		return nil
	}
	if *dueDay < ledger.MinDueDay || *dueDay > ledger.MaxDueDay {
		return ledger.NewValidationError("due day must be between %d and %d", ledger.MinDueDay, ledger.MaxDueDay)
	}
	return nil
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ledger.NotFoundError{Resource: resource}
	}
	return err
}
