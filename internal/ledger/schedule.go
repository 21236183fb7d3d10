package ledger

import (
	"fmt"
	"time"

	"github.com/gamefund/backend/internal/models"
)

// ScheduleState is a member's position in the contribution lifecycle.
type ScheduleState string

const (
	// ScheduleActive means a contribution is expected as normal.
	ScheduleActive ScheduleState = "active"
	// SchedulePaused means the obligation is suspended for a window.
	// A member stays paused past the window's nominal end date until an
	// admin explicitly resumes them; there is no automatic lapse.
	SchedulePaused ScheduleState = "paused"
	// ScheduleInactive means the member was removed from the group.
	// Terminal: re-joining resets the schedule from scratch.
	ScheduleInactive ScheduleState = "inactive"
)

// StatusOf derives the schedule state from a membership row.
func StatusOf(m *models.GroupMember) ScheduleState {
	if !m.IsActive {
		return ScheduleInactive
	}
	if m.IsContributionPaused {
		return SchedulePaused
	}
	return ScheduleActive
}

// StatusDetail is the display line shown next to a member's state:
// "Until 2025-03-01" for a bounded pause, "Indefinitely" for an
// unbounded one, "Since 2025-01-01" for an active member with a known
// contribution start.
func StatusDetail(m *models.GroupMember) string {
	switch StatusOf(m) {
	case SchedulePaused:
		if m.PauseEndDate != nil {
			return fmt.Sprintf("Until %s", m.PauseEndDate.Format("2006-01-02"))
		}
		return "Indefinitely"
	case ScheduleActive:
		if m.ContributionStartDate != nil {
			return fmt.Sprintf("Since %s", m.ContributionStartDate.Format("2006-01-02"))
		}
	}
	return ""
}

// ValidatePauseWindow checks an Active -> Paused transition. The start
// date must not be in the past (same-day is accepted); the end date,
// when given, must be strictly after the start. A nil end date denotes
// an indefinite pause.
func ValidatePauseWindow(start time.Time, end *time.Time, today time.Time) error {
	// Compare calendar dates, not instants: the start date arrives as
	// UTC midnight while "today" carries the server's zone.
	if dateOnly(start).Before(dateOnly(today)) {
		return NewValidationError("pause start date cannot be in the past")
	}
	if end != nil && !end.After(start) {
		return NewInvalidTransitionError("pause end date must be after the start date")
	}
	return nil
}

// PauseEndFromPreset resolves the 1/3/6-month duration shortcuts into
// an end date counted from the given start.
func PauseEndFromPreset(months int, start time.Time) (time.Time, error) {
	if months <= 0 {
		return time.Time{}, NewValidationError("pause duration must be a positive number of months")
	}
	return start.AddDate(0, months, 0), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
