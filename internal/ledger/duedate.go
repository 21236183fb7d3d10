package ledger

import (
	"fmt"
	"time"
)

// Due days above 28 are disallowed so the schedule never lands on a
// day a short month doesn't have.
const (
	MinDueDay = 1
	MaxDueDay = 28
)

// DueDateInfo is the computed next deadline for a group plus its
// human-readable rendering.
type DueDateInfo struct {
	Date     time.Time `json:"date"`
	DueDay   int       `json:"dueDay"`
	Ordinal  string    `json:"ordinal"`
	Label    string    `json:"label"`
	DaysLeft int       `json:"daysLeft"`
}

// NextDueDate computes the rolling monthly deadline: dueDay of the
// current month if it has not passed yet (today itself counts as not
// passed), otherwise dueDay of the following month.
func NextDueDate(dueDay int, today time.Time) (time.Time, error) {
	if dueDay < MinDueDay || dueDay > MaxDueDay {
		return time.Time{}, NewValidationError("due day must be between %d and %d", MinDueDay, MaxDueDay)
	}

	year, month, day := today.Date()
	if day > dueDay {
		month++
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, today.Location()), nil
}

// DueDateFor resolves a group's optional due day. A nil due day means
// the group has no enforced schedule and yields a nil result, not an
// error.
func DueDateFor(dueDay *int, today time.Time) (*DueDateInfo, error) {
	if dueDay == nil {
		return nil, nil
	}

	date, err := NextDueDate(*dueDay, today)
	if err != nil {
		return nil, err
	}

	ordinal := Ordinal(*dueDay)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	return &DueDateInfo{
		Date:     date,
		DueDay:   *dueDay,
		Ordinal:  ordinal,
		Label:    fmt.Sprintf("%s of every month", ordinal),
		DaysLeft: int(date.Sub(midnight).Hours() / 24),
	}, nil
}

// Ordinal renders n with its English ordinal suffix: 1st, 2nd, 3rd,
// 4th... with the 11-13 exception (11th, 12th, 13th).
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
