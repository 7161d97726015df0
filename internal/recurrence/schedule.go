package recurrence

import (
	"fmt"
	"time"

	"github.com/phrazzld/taskflow/internal/domain"
)

var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func lastDayOfMonth(year int, month time.Month) int {
	if month == time.February && isLeapYear(year) {
		return 29
	}
	return daysInMonth[month]
}

// NextOccurrence computes the next due date after one occurrence of a
// recurring task. Daily and weekly steps are fixed spans. Monthly and
// yearly steps advance the calendar field and clamp the day-of-month to
// the last valid day of the target month, so Jan 31 recurs on Feb 28
// (or Feb 29 in a leap year) rather than rolling over into March.
func NextOccurrence(from time.Time, pattern domain.RecurrencePattern) (time.Time, error) {
	switch pattern {
	case domain.RecurrenceDaily:
		return from.AddDate(0, 0, 1), nil
	case domain.RecurrenceWeekly:
		return from.AddDate(0, 0, 7), nil
	case domain.RecurrenceMonthly:
		return addMonths(from, 1), nil
	case domain.RecurrenceYearly:
		return addMonths(from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecurrencePattern, pattern)
	}
}

// addMonths advances by whole months with day-of-month clamping.
// time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 3), which is
// the wrong rule for recurring tasks.
func addMonths(from time.Time, months int) time.Time {
	year := from.Year()
	month := int(from.Month()) - 1 + months
	year += month / 12
	month = month % 12

	targetMonth := time.Month(month + 1)
	day := from.Day()
	if last := lastDayOfMonth(year, targetMonth); day > last {
		day = last
	}

	return time.Date(year, targetMonth, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}
