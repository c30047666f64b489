package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	valid := []string{"0344-0208268", "0301-1234567", "0399-9999999"}
	for _, p := range valid {
		if err := ValidatePhone(p); err != nil {
			t.Fatalf("expected %q to be valid: %v", p, err)
		}
	}

	invalid := []string{"", "03440208268", "0344-020826", "0344-02082680", "1344-0208268", "0344 0208268", "abcd-efghijk"}
	for _, p := range invalid {
		if err := ValidatePhone(p); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestMemberValidate(t *testing.T) {
	t.Parallel()

	m := &Member{
		FullName:   "Ali Khan",
		Phone:      "0344-0208268",
		JoinDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		MonthlyFee: DefaultMonthlyFee,
		Status:     STATUS_ACTIVE,
	}
	assert.NoError(t, m.Validate())

	fee := *m
	fee.MonthlyFee = 0
	assert.Error(t, fee.Validate(), "zero fee must be rejected")

	name := *m
	name.FullName = ""
	assert.Error(t, name.Validate(), "missing name must be rejected")

	email := *m
	email.Email = "not-an-email"
	assert.Error(t, email.Validate(), "malformed email must be rejected")

	status := *m
	status.Status = "paused"
	assert.Error(t, status.Validate(), "unknown status must be rejected")
}

func TestUserPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	u, err := CreateUser("Gym Owner", "owner@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !u.CheckPassword("secret123") {
		t.Fatalf("correct password rejected")
	}
	if u.CheckPassword("wrong") {
		t.Fatalf("wrong password accepted")
	}
}
