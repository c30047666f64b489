package models

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMonthlyFee is the fee pre-filled for new members.
const DefaultMonthlyFee = 1500

// phoneRegex matches local mobile numbers in the 0344-0208268 form.
var phoneRegex = regexp.MustCompile(`^03\d{2}-\d{7}$`)

// Member is one gym member with their billing profile. JoinDate anchors the
// monthly fee cycle and is immutable after creation; everything else the
// owner can edit.
type Member struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       string    `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	OwnerID    uint      `gorm:"index;not null;uniqueIndex:idx_owner_phone" json:"owner_id"`
	Owner      User      `gorm:"foreignKey:OwnerID" json:"-"`
	MemberNo   uint      `gorm:"type:int unsigned" json:"member_no"`
	FullName   string    `gorm:"type:varchar(150)" json:"full_name" validate:"required,min=2,max=150"`
	Phone      string    `gorm:"type:varchar(20);uniqueIndex:idx_owner_phone" json:"phone" validate:"required"`
	Email      string    `gorm:"type:varchar(200);default:null" json:"email" validate:"omitempty,email,max=200"`
	JoinDate   time.Time `gorm:"type:date;not null" json:"join_date"`
	MonthlyFee float64   `gorm:"type:decimal(10,2);not null" json:"monthly_fee" validate:"gt=0"`
	Status     string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive"`
	Notes      string    `gorm:"type:text" json:"notes" validate:"max=2000"`
	PhotoPath  string    `gorm:"type:varchar(255);default:null" json:"photo_path"`
	// relations
	Payments  []Payment      `gorm:"foreignKey:MemberID" json:"payments,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.New().String()
	}
	return nil
}

func (m *Member) Validate() error {
	v := validator.New()

	if err := v.Struct(m); err != nil {
		return err
	}
	return ValidatePhone(m.Phone)
}

// ValidatePhone checks the 0344-0208268 phone format.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// IsActive reports whether the membership itself is active. This is
// independent of the fee state; an active member can still be overdue.
func (m *Member) IsActive() bool {
	return m.Status == STATUS_ACTIVE
}

// FindMemberByUUID finds a member by public UUID, scoped to an owner.
func FindMemberByUUID(db *gorm.DB, ownerID uint, uuid string) (*Member, error) {
	var member Member
	result := db.Where("owner_id = ? AND uuid = ?", ownerID, uuid).First(&member)
	return &member, result.Error
}
