package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamefund/backend/internal/models"
)

func contribution(amount float64, status models.ContributionStatus) models.Contribution {
	return models.Contribution{
		Amount: decimal.NewFromFloat(amount),
		Status: status,
		Date:   time.Now(),
	}
}

func expense(amount float64, status models.ExpenseStatus) models.Expense {
	return models.Expense{
		Amount: decimal.NewFromFloat(amount),
		Status: status,
		Date:   time.Now(),
	}
}

func TestAggregateCountsOnlyRealizedRecords(t *testing.T) {
	group := &models.Group{TargetAmount: decimal.NewFromInt(1000), Currency: "EUR"}

	contributions := []models.Contribution{
		contribution(100, models.ContributionStatusPaid),
		contribution(50, models.ContributionStatusPending),
		contribution(25, models.ContributionStatusRejected),
		contribution(10, models.ContributionStatusRefunded),
		contribution(5, models.ContributionStatusCancelled),
	}
	expenses := []models.Expense{
		expense(30, models.ExpenseStatusApproved),
		expense(20, models.ExpenseStatusProposed),
		expense(15, models.ExpenseStatusRejected),
		expense(5, models.ExpenseStatusCancelled),
	}

	summary := Aggregate(group, contributions, expenses)

	if !summary.TotalContributions.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected contributions total 100, got %s", summary.TotalContributions.Amount)
	}
	if !summary.TotalExpenses.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected expenses total 30, got %s", summary.TotalExpenses.Amount)
	}
	if !summary.Balance.Amount.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected balance 70, got %s", summary.Balance.Amount)
	}
	if summary.Progress != 7.0 {
		t.Fatalf("expected progress 7.0, got %f", summary.Progress)
	}
}

func TestAggregateCompletedExpensesAreRealized(t *testing.T) {
	group := &models.Group{TargetAmount: decimal.NewFromInt(500), Currency: "EUR"}

	summary := Aggregate(group,
		[]models.Contribution{contribution(200, models.ContributionStatusPaid)},
		[]models.Expense{
			expense(40, models.ExpenseStatusApproved),
			expense(60, models.ExpenseStatusCompleted),
		},
	)

	if !summary.TotalExpenses.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected expenses total 100, got %s", summary.TotalExpenses.Amount)
	}
	if !summary.Balance.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", summary.Balance.Amount)
	}
}

func TestAggregateBalanceMayGoNegative(t *testing.T) {
	group := &models.Group{TargetAmount: decimal.NewFromInt(1000), Currency: "EUR"}

	summary := Aggregate(group,
		[]models.Contribution{contribution(50, models.ContributionStatusPaid)},
		[]models.Expense{expense(80, models.ExpenseStatusCompleted)},
	)

	if !summary.Balance.IsNegative() {
		t.Fatalf("expected negative balance, got %s", summary.Balance.Amount)
	}
	if summary.Progress != -3.0 {
		t.Fatalf("expected progress -3.0, got %f", summary.Progress)
	}
	if summary.ProgressClamped != 0 {
		t.Fatalf("expected clamped progress 0, got %f", summary.ProgressClamped)
	}
}

func TestAggregateProgressClampsAt100(t *testing.T) {
	group := &models.Group{TargetAmount: decimal.NewFromInt(100), Currency: "EUR"}

	summary := Aggregate(group,
		[]models.Contribution{contribution(250, models.ContributionStatusPaid)},
		nil,
	)

	if summary.Progress != 250.0 {
		t.Fatalf("expected raw progress 250.0, got %f", summary.Progress)
	}
	if summary.ProgressClamped != 100 {
		t.Fatalf("expected clamped progress 100, got %f", summary.ProgressClamped)
	}
}

func TestAggregateZeroTargetHasZeroProgress(t *testing.T) {
	group := &models.Group{TargetAmount: decimal.Zero, Currency: "EUR"}

	summary := Aggregate(group,
		[]models.Contribution{contribution(100, models.ContributionStatusPaid)},
		nil,
	)

	if summary.Progress != 0 {
		t.Fatalf("expected zero progress with no target, got %f", summary.Progress)
	}
}
