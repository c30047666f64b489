package models

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPhone is returned when a phone number does not match the
	// expected 0344-0208268 format.
	ErrInvalidPhone = errors.New("phone must be in the format 0344-0208268")
)

const (
	PAYMENT_METHOD_CASH = "cash"
	PAYMENT_METHOD_BANK = "bank"
)

// Payment records that one monthly cycle was paid. A cycle is identified by
// its due date, so (member_id, cycle_due_date) is unique: marking the same
// cycle paid twice is a constraint violation, not an update. Rows are
// insert-only and never mutated.
type Payment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberID     uint      `gorm:"not null;uniqueIndex:idx_member_cycle" json:"member_id"`
	Member       Member    `gorm:"foreignKey:MemberID" json:"-"`
	CycleDueDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_member_cycle" json:"cycle_due_date"`
	Amount       float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidAt       time.Time `gorm:"autoCreateTime" json:"paid_at"`
	Method       string    `gorm:"type:varchar(50);default:'cash'" json:"method"`
	Note         string    `gorm:"type:text" json:"note"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PaymentKey is the lightweight projection used by the member list view:
// just enough to know which cycles are paid, for many members at once.
type PaymentKey struct {
	MemberID     uint      `json:"member_id"`
	CycleDueDate time.Time `json:"cycle_due_date"`
}
