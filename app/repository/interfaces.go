package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fitmania/gymdesk/app/models"
)

// UserRepository defines the interface for owner-account database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdateLastLogin(id uint, at time.Time) error
}

// MemberRepository defines the interface for member-related database operations
type MemberRepository interface {
	Create(member *models.Member) error
	GetByID(id uint) (*models.Member, error)
	GetByUUID(ownerID uint, uuid string) (*models.Member, error)
	ListByOwner(ownerID uint) ([]models.Member, error)
	Update(member *models.Member) error
	Delete(id uint) error
	CountByOwner(ownerID uint) (int64, error)
	NextMemberNo(ownerID uint) (uint, error)
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	ListByMember(memberID uint) ([]models.Payment, error)
	ListKeysByMembers(memberIDs []uint) ([]models.PaymentKey, error)
	ExistsForCycle(memberID uint, cycleDueDate time.Time) (bool, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Member  MemberRepository
	Payment PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Member:  NewMemberRepository(db),
		Payment: NewPaymentRepository(db),
	}
}
