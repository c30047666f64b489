package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fitmania/gymdesk/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a payment record. The (member_id, cycle_due_date) unique
// index makes a second payment for the same cycle fail at the database.
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// ListByMember returns all payments of one member, latest cycle first
func (r *paymentRepository) ListByMember(memberID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("member_id = ?", memberID).Order("cycle_due_date DESC").Find(&payments).Error
	return payments, err
}

// ListKeysByMembers returns the (member_id, cycle_due_date) pairs for a set
// of members in one query. The list view uses this to resolve fee status
// for every member without loading full payment rows.
func (r *paymentRepository) ListKeysByMembers(memberIDs []uint) ([]models.PaymentKey, error) {
	var keys []models.PaymentKey
	if len(memberIDs) == 0 {
		return keys, nil
	}
	err := r.db.Model(&models.Payment{}).
		Select("member_id", "cycle_due_date").
		Where("member_id IN ?", memberIDs).
		Find(&keys).Error
	return keys, err
}

// ExistsForCycle reports whether a cycle already has a payment
func (r *paymentRepository) ExistsForCycle(memberID uint, cycleDueDate time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("member_id = ? AND cycle_due_date = ?", memberID, cycleDueDate.Format("2006-01-02")).
		Count(&count).Error
	return count > 0, err
}
