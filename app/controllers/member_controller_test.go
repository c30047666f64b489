package controllers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/internal/pkg/feecycle"
)

func TestWhatsAppNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{
			name:  "local mobile number gets country prefix",
			phone: "0344-0208268",
			want:  "923440208268",
		},
		{
			name:  "dashes are stripped",
			phone: "0300-1234567",
			want:  "923001234567",
		},
		{
			name:  "already international number is untouched",
			phone: "923440208268",
			want:  "923440208268",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, whatsAppNumber(tc.phone))
		})
	}
}

func TestIsCycleDate(t *testing.T) {
	t.Parallel()

	join := mustDate(t, "2025-01-31")
	today := mustDate(t, "2025-04-10")

	tests := []struct {
		name string
		due  string
		want bool
	}{
		{name: "join date itself", due: "2025-01-31", want: true},
		{name: "clamped february cycle", due: "2025-02-28", want: true},
		{name: "march cycle back on the anchor day", due: "2025-03-31", want: true},
		{name: "upcoming cycle within a month", due: "2025-04-30", want: true},
		{name: "non-cycle date", due: "2025-03-15", want: false},
		{name: "drifted day is rejected", due: "2025-03-28", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			due := mustDate(t, tc.due)
			assert.Equal(t, tc.want, isCycleDate(join, due, today))
		})
	}
}

func TestMatchesStatusFilter(t *testing.T) {
	t.Parallel()

	active := &models.Member{Status: models.STATUS_ACTIVE}
	inactive := &models.Member{Status: models.STATUS_INACTIVE}
	overdue := feecycle.Status{Key: feecycle.StateOverdue}
	grace := feecycle.Status{Key: feecycle.StateGrace}
	ok := feecycle.Status{Key: feecycle.StateOK}

	assert.True(t, matchesStatusFilter(active, ok, "all"))
	assert.True(t, matchesStatusFilter(active, ok, ""))
	assert.True(t, matchesStatusFilter(active, ok, "active"))
	assert.False(t, matchesStatusFilter(inactive, ok, "active"))
	assert.True(t, matchesStatusFilter(inactive, ok, "inactive"))
	assert.True(t, matchesStatusFilter(active, overdue, "overdue"))
	assert.False(t, matchesStatusFilter(active, grace, "overdue"))
	assert.True(t, matchesStatusFilter(active, grace, "grace"))
	// unknown filters fall back to showing everything
	assert.True(t, matchesStatusFilter(active, ok, "nonsense"))
}

func TestIsDuplicateKeyErr(t *testing.T) {
	t.Parallel()

	assert.False(t, isDuplicateKeyErr(nil))
	assert.False(t, isDuplicateKeyErr(errors.New("connection refused")))
	assert.True(t, isDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKeyErr(errors.New("Error 1062 (23000): Duplicate entry '1-0344-0208268' for key 'idx_owner_phone'")))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := feecycle.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}
