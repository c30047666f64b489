// Package feecycle derives monthly billing cycles and their payment state
// from a member's join date and the set of recorded payments. Everything in
// here is a pure function of its inputs; "today" is always passed in
// explicitly so results are reproducible in tests.
package feecycle

import (
	"fmt"
	"time"
)

// DefaultGraceDays is the number of days after a due date during which a
// cycle is flagged but not yet overdue.
const DefaultGraceDays = 3

// MaxCycles caps schedule generation. 20 years of monthly cycles is far
// beyond any real membership; the cap guards against pathological inputs
// like a join date decades in the past combined with clock skew.
const MaxCycles = 240

// DateFormat is the wire format for cycle due dates and join dates.
const DateFormat = "2006-01-02"

// State classifies one billing cycle.
type State string

const (
	StatePaid    State = "paid"
	StateOK      State = "ok"
	StateDueSoon State = "due_soon"
	StateGrace   State = "grace"
	StateOverdue State = "overdue"
)

// ParseDate parses a YYYY-MM-DD string into a midday-normalized local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Normalize(t), nil
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// Normalize pins a time to midday of its calendar day. All cycle math works
// on midday values so timezone offsets and DST transitions can never shift
// a date across a day boundary.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// AddMonths advances a date by n calendar months, clamping the day to the
// length of the target month. The clamp is computed from the base date's
// own day, so callers that need drift-free schedules must always advance
// from the original anchor date, never from a previously clamped result.
func AddMonths(base time.Time, n int) time.Time {
	y := base.Year()
	m := int(base.Month()) - 1 + n
	d := base.Day()

	ny := y + m/12
	nm := m % 12
	if nm < 0 {
		nm += 12
		ny--
	}

	month := time.Month(nm + 1)
	if max := daysInMonth(ny, month); d > max {
		d = max
	}

	return time.Date(ny, month, d, 12, 0, 0, 0, base.Location())
}

// DiffDays returns the calendar-day difference a-b, ignoring time of day.
func DiffDays(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ua.Sub(ub).Hours() / 24)
}

// Schedule generates the ordered cycle due dates for a member, starting at
// the join date itself (the first due date IS the join date) and advancing
// one calendar month per cycle, while due <= until. Each due date is
// derived from the join date directly so a short month never shrinks the
// cycles that follow it (Jan 31 -> Feb 28/29 -> Mar 31, not Mar 28).
func Schedule(join, until time.Time) []time.Time {
	join = Normalize(join)
	until = Normalize(until)

	var dates []time.Time
	for i := 0; i < MaxCycles; i++ {
		due := AddMonths(join, i)
		if DiffDays(due, until) > 0 {
			break
		}
		dates = append(dates, due)
	}
	return dates
}

// Classification is the urgency of a single unpaid cycle.
type Classification struct {
	Key   State
	Label string
}

// Classify determines urgency for an unpaid cycle. Paid cycles must be
// short-circuited by the caller; a recorded payment overrides any
// time-based state.
func Classify(due, today time.Time, graceDays int) Classification {
	daysToDue := DiffDays(due, today)

	if daysToDue > graceDays {
		return Classification{Key: StateOK, Label: fmt.Sprintf("Due in %dd", daysToDue)}
	}

	if daysToDue >= 0 {
		label := fmt.Sprintf("Due in %dd", daysToDue)
		if daysToDue == 0 {
			label = "Due today"
		}
		return Classification{Key: StateDueSoon, Label: label}
	}

	daysAfterDue := -daysToDue
	if daysAfterDue <= graceDays {
		return Classification{
			Key:   StateGrace,
			Label: fmt.Sprintf("Grace %d/%d", daysAfterDue, graceDays),
		}
	}

	return Classification{
		Key:   StateOverdue,
		Label: fmt.Sprintf("Overdue %dd", daysAfterDue-graceDays),
	}
}

// Payable reports whether a cycle may be marked paid: only on or after its
// due date, compared at calendar-day granularity.
func Payable(due, today time.Time) bool {
	return DiffDays(today, due) >= 0
}

// PaidSet is the set of paid cycle due dates (YYYY-MM-DD keys) for one member.
type PaidSet map[string]struct{}

// Has reports whether the cycle due on t has a recorded payment.
func (s PaidSet) Has(t time.Time) bool {
	_, ok := s[FormatDate(t)]
	return ok
}

// Status is the single representative fee state shown for a member in
// list and summary views.
type Status struct {
	Key         State
	Label       string
	Due         time.Time
	UnpaidCount int
}

// MemberStatus computes the paid-aware aggregate status for a member.
//
// All cycles due on or before today are generated; if any of them are
// unpaid, the EARLIEST unpaid cycle drives the status (a member three
// months behind is judged by the oldest miss, not the newest) and the
// label carries an unpaid-count suffix when more than one cycle is open.
// With no arrears the status comes from the next upcoming cycle.
func MemberStatus(join, today time.Time, paid PaidSet, graceDays int) Status {
	join = Normalize(join)
	today = Normalize(today)

	past := Schedule(join, today)

	var unpaid []time.Time
	for _, due := range past {
		if !paid.Has(due) {
			unpaid = append(unpaid, due)
		}
	}

	if len(unpaid) > 0 {
		oldest := unpaid[0]
		cls := Classify(oldest, today, graceDays)
		label := cls.Label
		if len(unpaid) > 1 {
			label = fmt.Sprintf("%s • %d unpaid", label, len(unpaid))
		}
		return Status{Key: cls.Key, Label: label, Due: oldest, UnpaidCount: len(unpaid)}
	}

	// All past cycles paid: the next due date is cycle len(past), i.e. the
	// first one strictly after today.
	next := AddMonths(join, len(past))
	cls := Classify(next, today, graceDays)
	return Status{Key: cls.Key, Label: cls.Label, Due: next}
}

// Cycle is one row of a member's fee history.
type Cycle struct {
	DueDate time.Time
	Key     string // YYYY-MM-DD, matches payments.cycle_due_date
	Month   string // YYYY-MM display label
	State   State
	Label   string
	Payable bool
}

// History builds the full cycle history for the detail view: every cycle
// from the join date up to one month past today (so the next upcoming due
// date is visible), each resolved to paid or time-classified. Rows come
// back latest-first for display.
func History(join, today time.Time, paid PaidSet, graceDays int) []Cycle {
	join = Normalize(join)
	today = Normalize(today)

	end := AddMonths(today, 1)
	dates := Schedule(join, end)

	cycles := make([]Cycle, 0, len(dates))
	for _, due := range dates {
		key := FormatDate(due)
		row := Cycle{
			DueDate: due,
			Key:     key,
			Month:   key[:7],
			Payable: Payable(due, today),
		}
		if paid.Has(due) {
			row.State = StatePaid
			row.Label = "Paid"
			row.Payable = false
		} else {
			cls := Classify(due, today, graceDays)
			row.State = cls.Key
			row.Label = cls.Label
		}
		cycles = append(cycles, row)
	}

	// Latest months on top.
	for i, j := 0, len(cycles)-1; i < j; i, j = i+1, j-1 {
		cycles[i], cycles[j] = cycles[j], cycles[i]
	}
	return cycles
}

// Summary aggregates history rows for the detail view stat tiles.
type Summary struct {
	Paid    int
	Unpaid  int
	DueSoon int
	Grace   int
	Overdue int
}

// Summarize counts history rows per state.
func Summarize(cycles []Cycle) Summary {
	var s Summary
	for _, c := range cycles {
		switch c.State {
		case StatePaid:
			s.Paid++
		case StateDueSoon:
			s.Unpaid++
			s.DueSoon++
		case StateGrace:
			s.Unpaid++
			s.Grace++
		case StateOverdue:
			s.Unpaid++
			s.Overdue++
		default:
			s.Unpaid++
		}
	}
	return s
}
