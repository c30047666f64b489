package feecycle

import (
	"fmt"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "2024-13-01", "15-01-2025", "2024-02-30"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestAddMonths_ClampsToShortMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base   string
		months int
		want   string
	}{
		{"2024-01-31", 1, "2024-02-29"}, // leap year
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2024-03-31"},
		{"2024-01-31", 3, "2024-04-30"},
		{"2024-03-31", 11, "2025-02-28"}, // year rollover into non-leap
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-06-15", 0, "2024-06-15"},
	}

	for _, tt := range tests {
		got := FormatDate(AddMonths(date(t, tt.base), tt.months))
		if got != tt.want {
			t.Fatalf("AddMonths(%s, %d) = %s, want %s", tt.base, tt.months, got, tt.want)
		}
	}
}

func TestSchedule_MonthStepAndDayAnchor(t *testing.T) {
	t.Parallel()

	join := date(t, "2022-07-09")
	until := AddMonths(join, 36)
	dates := Schedule(join, until)

	if len(dates) != 37 {
		t.Fatalf("expected 37 cycles, got %d", len(dates))
	}
	if !dates[0].Equal(join) {
		t.Fatalf("first due date must be the join date itself, got %s", FormatDate(dates[0]))
	}

	for i := 1; i < len(dates); i++ {
		prev, cur := dates[i-1], dates[i]
		if !cur.After(prev) {
			t.Fatalf("due dates not strictly increasing at index %d", i)
		}

		wantMonth := (int(prev.Month()) % 12) + 1
		if int(cur.Month()) != wantMonth {
			t.Fatalf("cycle %d: month %d does not follow %d", i, cur.Month(), prev.Month())
		}

		wantDay := join.Day()
		if max := daysInMonth(cur.Year(), cur.Month()); wantDay > max {
			wantDay = max
		}
		if cur.Day() != wantDay {
			t.Fatalf("cycle %d: day %d, want min(join day, month length) = %d", i, cur.Day(), wantDay)
		}
	}
}

// A clamped short month must not shrink the cycles that follow it: the day
// re-anchors to the join date's day every month.
func TestSchedule_ClampingIndependence(t *testing.T) {
	t.Parallel()

	join := date(t, "2024-01-31")
	dates := Schedule(join, date(t, "2024-05-31"))

	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d cycles, got %d", len(want), len(dates))
	}
	for i, w := range want {
		if got := FormatDate(dates[i]); got != w {
			t.Fatalf("cycle %d = %s, want %s", i, got, w)
		}
	}
}

func TestSchedule_Reproducible(t *testing.T) {
	t.Parallel()

	join := date(t, "2020-02-29")
	until := date(t, "2026-01-01")

	a := Schedule(join, until)
	b := Schedule(join, until)
	if len(a) != len(b) {
		t.Fatalf("schedule lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("schedule not reproducible at index %d", i)
		}
	}
}

func TestSchedule_CapsIterations(t *testing.T) {
	t.Parallel()

	join := date(t, "1950-01-01")
	dates := Schedule(join, date(t, "2100-01-01"))
	if len(dates) != MaxCycles {
		t.Fatalf("expected generation capped at %d cycles, got %d", MaxCycles, len(dates))
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	today := date(t, "2025-06-10")

	tests := []struct {
		due       string
		wantKey   State
		wantLabel string
	}{
		{"2025-06-20", StateOK, "Due in 10d"},
		{"2025-06-14", StateOK, "Due in 4d"},
		{"2025-06-13", StateDueSoon, "Due in 3d"},
		{"2025-06-11", StateDueSoon, "Due in 1d"},
		{"2025-06-10", StateDueSoon, "Due today"},
		{"2025-06-09", StateGrace, "Grace 1/3"},
		{"2025-06-07", StateGrace, "Grace 3/3"}, // exactly graceDays ago: still grace
		{"2025-06-06", StateOverdue, "Overdue 1d"},
		{"2025-05-10", StateOverdue, "Overdue 28d"},
	}

	for _, tt := range tests {
		got := Classify(date(t, tt.due), today, DefaultGraceDays)
		if got.Key != tt.wantKey || got.Label != tt.wantLabel {
			t.Fatalf("Classify(%s) = %s %q, want %s %q", tt.due, got.Key, got.Label, tt.wantKey, tt.wantLabel)
		}
	}
}

func TestPayable(t *testing.T) {
	t.Parallel()

	today := date(t, "2025-03-15")

	if Payable(date(t, "2025-03-16"), today) {
		t.Fatalf("cycle due tomorrow must not be payable")
	}
	if !Payable(date(t, "2025-03-15"), today) {
		t.Fatalf("cycle due today must be payable")
	}
	if !Payable(date(t, "2025-01-15"), today) {
		t.Fatalf("past-due cycle must be payable")
	}
}

func paidSet(dates ...string) PaidSet {
	s := make(PaidSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func TestMemberStatus_AllPaidShowsUpcoming(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-15")
	today := date(t, "2025-03-20")

	st := MemberStatus(join, today, paidSet("2025-01-15", "2025-02-15", "2025-03-15"), DefaultGraceDays)
	if st.Key != StateOK {
		t.Fatalf("expected ok, got %s (%s)", st.Key, st.Label)
	}
	if FormatDate(st.Due) != "2025-04-15" {
		t.Fatalf("expected next due 2025-04-15, got %s", FormatDate(st.Due))
	}
	if st.UnpaidCount != 0 {
		t.Fatalf("expected no unpaid cycles, got %d", st.UnpaidCount)
	}
	if st.Label != "Due in 26d" {
		t.Fatalf("unexpected label %q", st.Label)
	}
}

func TestMemberStatus_DueSoonBoundary(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-15")
	today := date(t, "2025-02-12") // next due in exactly 3 days

	st := MemberStatus(join, today, paidSet("2025-01-15"), DefaultGraceDays)
	if st.Key != StateDueSoon || st.Label != "Due in 3d" {
		t.Fatalf("expected due_soon in 3d, got %s (%s)", st.Key, st.Label)
	}
}

func TestMemberStatus_GraceOverdueBoundary(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-15")

	// Due exactly graceDays ago: grace, not overdue.
	st := MemberStatus(join, date(t, "2025-01-18"), nil, DefaultGraceDays)
	if st.Key != StateGrace || st.Label != "Grace 3/3" {
		t.Fatalf("3 days after due: got %s (%s), want grace 3/3", st.Key, st.Label)
	}

	// One day later it tips into overdue.
	st = MemberStatus(join, date(t, "2025-01-19"), nil, DefaultGraceDays)
	if st.Key != StateOverdue || st.Label != "Overdue 1d" {
		t.Fatalf("4 days after due: got %s (%s), want overdue 1d", st.Key, st.Label)
	}
}

// A member several months behind is judged by the OLDEST unpaid cycle, and
// the label carries the open-cycle count.
func TestMemberStatus_MultiArrearsKeysOnOldest(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-10")
	today := date(t, "2025-03-20")

	// Jan paid; Feb and Mar missed.
	st := MemberStatus(join, today, paidSet("2025-01-10"), DefaultGraceDays)
	if st.Key != StateOverdue {
		t.Fatalf("expected overdue, got %s", st.Key)
	}
	if FormatDate(st.Due) != "2025-02-10" {
		t.Fatalf("status must key on oldest unpaid cycle, got %s", FormatDate(st.Due))
	}
	if st.UnpaidCount != 2 {
		t.Fatalf("expected 2 unpaid cycles, got %d", st.UnpaidCount)
	}
	// Feb 10 was 38 days ago; minus grace = 35.
	if st.Label != "Overdue 35d • 2 unpaid" {
		t.Fatalf("unexpected label %q", st.Label)
	}
}

func TestMemberStatus_EndToEndScenario(t *testing.T) {
	t.Parallel()

	// Joined 2025-01-15, no payments, today 2025-04-20: four unpaid cycles,
	// oldest 95 days past due, overdue (95-3)=92d.
	join := date(t, "2025-01-15")
	today := date(t, "2025-04-20")

	st := MemberStatus(join, today, nil, DefaultGraceDays)
	if st.Key != StateOverdue {
		t.Fatalf("expected overdue, got %s (%s)", st.Key, st.Label)
	}
	if st.UnpaidCount != 4 {
		t.Fatalf("expected 4 unpaid cycles, got %d", st.UnpaidCount)
	}
	if FormatDate(st.Due) != "2025-01-15" {
		t.Fatalf("expected oldest unpaid 2025-01-15, got %s", FormatDate(st.Due))
	}
	if st.Label != "Overdue 92d • 4 unpaid" {
		t.Fatalf("unexpected label %q", st.Label)
	}
}

func TestMemberStatus_FutureJoinDate(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-07-01")
	st := MemberStatus(join, date(t, "2025-06-20"), nil, DefaultGraceDays)
	if st.Key != StateOK || st.Label != "Due in 11d" {
		t.Fatalf("future join: got %s (%s), want ok Due in 11d", st.Key, st.Label)
	}
}

func TestHistory_PaidOverridesTimeState(t *testing.T) {
	t.Parallel()

	join := date(t, "2024-01-15")
	today := date(t, "2025-04-20")

	// An ancient cycle with a payment is paid, no matter how far past due.
	cycles := History(join, today, paidSet("2024-01-15"), DefaultGraceDays)

	var found bool
	for _, c := range cycles {
		if c.Key == "2024-01-15" {
			found = true
			if c.State != StatePaid || c.Label != "Paid" {
				t.Fatalf("paid cycle classified as %s (%s)", c.State, c.Label)
			}
			if c.Payable {
				t.Fatalf("paid cycle must not be payable again")
			}
		}
	}
	if !found {
		t.Fatalf("cycle 2024-01-15 missing from history")
	}
}

func TestHistory_OrderAndBounds(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-15")
	today := date(t, "2025-04-20")

	cycles := History(join, today, nil, DefaultGraceDays)

	// Jan through May (May 15 is within one month past today).
	if len(cycles) != 5 {
		t.Fatalf("expected 5 cycles, got %d", len(cycles))
	}
	if cycles[0].Key != "2025-05-15" {
		t.Fatalf("history must be latest-first, got %s on top", cycles[0].Key)
	}
	if cycles[len(cycles)-1].Key != "2025-01-15" {
		t.Fatalf("oldest cycle must be last, got %s", cycles[len(cycles)-1].Key)
	}

	for i := 1; i < len(cycles); i++ {
		if !cycles[i].DueDate.Before(cycles[i-1].DueDate) {
			t.Fatalf("history not in reverse-chronological order at index %d", i)
		}
	}

	// The upcoming May cycle is in the future: visible but not payable.
	if cycles[0].Payable {
		t.Fatalf("future cycle must not be payable")
	}
	if cycles[0].State != StateOK {
		t.Fatalf("upcoming cycle state = %s, want ok", cycles[0].State)
	}
}

func TestHistory_MonthLabel(t *testing.T) {
	t.Parallel()

	cycles := History(date(t, "2025-01-15"), date(t, "2025-01-20"), nil, DefaultGraceDays)
	for _, c := range cycles {
		if want := c.Key[:7]; c.Month != want {
			t.Fatalf("month label %q, want %q", c.Month, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	join := date(t, "2025-01-15")
	today := date(t, "2025-04-16") // Apr 15 due yesterday -> grace

	cycles := History(join, today, paidSet("2025-01-15", "2025-02-15"), DefaultGraceDays)
	s := Summarize(cycles)

	if s.Paid != 2 {
		t.Fatalf("paid = %d, want 2", s.Paid)
	}
	// Mar overdue, Apr grace, May upcoming (ok) -> 3 unpaid rows total.
	if s.Unpaid != 3 || s.Overdue != 1 || s.Grace != 1 || s.DueSoon != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestDiffDays_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	a := time.Date(2025, 3, 10, 23, 59, 0, 0, time.Local)
	b := time.Date(2025, 3, 9, 0, 1, 0, 0, time.Local)
	if got := DiffDays(a, b); got != 1 {
		t.Fatalf("DiffDays = %d, want 1", got)
	}
	if got := DiffDays(b, a); got != -1 {
		t.Fatalf("DiffDays reversed = %d, want -1", got)
	}
}

func ExampleMemberStatus() {
	join, _ := ParseDate("2025-01-15")
	today, _ := ParseDate("2025-04-20")

	st := MemberStatus(join, today, nil, DefaultGraceDays)
	fmt.Println(st.Label)
	// Output: Overdue 92d • 4 unpaid
}
