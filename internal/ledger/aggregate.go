package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/gamefund/backend/internal/models"
)

// Summary is the derived financial view of a group. Nothing in it is
// stored; it is recomputed from the contribution and expense
// collections on every read.
type Summary struct {
	TotalContributions Money `json:"totalContributions"`
	TotalExpenses      Money `json:"totalExpenses"`
	// Balance may be negative when expenses exceed contributions.
	Balance Money `json:"balance"`
	// Progress is balance / target * 100, unclamped for numeric
	// display; ProgressClamped is bounded to [0, 100] for progress bars.
	Progress        float64 `json:"progress"`
	ProgressClamped float64 `json:"progressClamped"`
}

// CountsTowardBalance reports whether a contribution is realized.
// Only paid contributions enter the authoritative balance; pending,
// rejected, refunded and cancelled ones never do.
func CountsTowardBalance(c *models.Contribution) bool {
	return c.Status == models.ContributionStatusPaid
}

// ExpenseCountsTowardBalance reports whether an expense is realized:
// approved or completed. Proposed, rejected and cancelled expenses are
// excluded.
func ExpenseCountsTowardBalance(e *models.Expense) bool {
	return e.Status == models.ExpenseStatusApproved || e.Status == models.ExpenseStatusCompleted
}

// Aggregate computes the realized totals, balance and target progress
// for a group from its full contribution and expense collections.
func Aggregate(group *models.Group, contributions []models.Contribution, expenses []models.Expense) Summary {
	currency := group.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	contribTotal := decimal.Zero
	for i := range contributions {
		if CountsTowardBalance(&contributions[i]) {
			contribTotal = contribTotal.Add(contributions[i].Amount)
		}
	}

	expenseTotal := decimal.Zero
	for i := range expenses {
		if ExpenseCountsTowardBalance(&expenses[i]) {
			expenseTotal = expenseTotal.Add(expenses[i].Amount)
		}
	}

	balance := contribTotal.Sub(expenseTotal)
	progress := progressPercentage(balance, group.TargetAmount)

	return Summary{
		TotalContributions: NewMoney(contribTotal, currency),
		TotalExpenses:      NewMoney(expenseTotal, currency),
		Balance:            NewMoney(balance, currency),
		Progress:           progress,
		ProgressClamped:    clamp(progress, 0, 100),
	}
}

func progressPercentage(balance, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	pct, _ := balance.Div(target).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
