package ledger

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDateRollover(t *testing.T) {
	testCases := []struct {
		name     string
		dueDay   int
		today    time.Time
		expected time.Time
	}{
		{
			name:     "before due day stays in current month",
			dueDay:   15,
			today:    date(2025, time.March, 10),
			expected: date(2025, time.March, 15),
		},
		{
			name:     "after due day rolls to next month",
			dueDay:   15,
			today:    date(2025, time.March, 20),
			expected: date(2025, time.April, 15),
		},
		{
			name:     "due day today is still due today",
			dueDay:   15,
			today:    date(2025, time.March, 15),
			expected: date(2025, time.March, 15),
		},
		{
			name:     "december rolls into january",
			dueDay:   5,
			today:    date(2025, time.December, 28),
			expected: date(2026, time.January, 5),
		},
		{
			name:     "day 28 works in february",
			dueDay:   28,
			today:    date(2025, time.February, 1),
			expected: date(2025, time.February, 28),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextDueDate(tc.dueDay, tc.today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.expected) {
				t.Fatalf("expected %s, got %s", tc.expected.Format("2006-01-02"), got.Format("2006-01-02"))
			}
		})
	}
}

func TestNextDueDateRejectsOutOfRangeDays(t *testing.T) {
	for _, dueDay := range []int{0, -1, 29, 31} {
		_, err := NextDueDate(dueDay, date(2025, time.June, 1))
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("dueDay=%d: expected ValidationError, got %v", dueDay, err)
		}
	}
}

func TestDueDateForNilDueDay(t *testing.T) {
	info, err := DueDateFor(nil, date(2025, time.June, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info for unset due day, got %+v", info)
	}
}

func TestDueDateForLabelAndDaysLeft(t *testing.T) {
	dueDay := 22
	info, err := DueDateFor(&dueDay, date(2025, time.March, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Label != "22nd of every month" {
		t.Fatalf("expected label %q, got %q", "22nd of every month", info.Label)
	}
	if info.DaysLeft != 2 {
		t.Fatalf("expected 2 days left, got %d", info.DaysLeft)
	}
}

func TestOrdinal(t *testing.T) {
	testCases := map[int]string{
		1:  "1st",
		2:  "2nd",
		3:  "3rd",
		4:  "4th",
		10: "10th",
		11: "11th",
		12: "12th",
		13: "13th",
		21: "21st",
		22: "22nd",
		23: "23rd",
		24: "24th",
		28: "28th",
	}

	for n, expected := range testCases {
		if got := Ordinal(n); got != expected {
			t.Errorf("Ordinal(%d): expected %q, got %q", n, expected, got)
		}
	}
}
