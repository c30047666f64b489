package repository

import (
	"gorm.io/gorm"

	"github.com/fitmania/gymdesk/app/models"
)

// memberRepository implements the MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository instance
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new member in the database
func (r *memberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

// GetByID retrieves a member by their internal ID
func (r *memberRepository) GetByID(id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByUUID retrieves a member by public UUID, scoped to an owner
func (r *memberRepository) GetByUUID(ownerID uint, uuid string) (*models.Member, error) {
	var member models.Member
	err := r.db.Where("owner_id = ? AND uuid = ?", ownerID, uuid).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByOwner returns all members of one owner, newest registrations first
func (r *memberRepository) ListByOwner(ownerID uint) ([]models.Member, error) {
	var members []models.Member
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&members).Error
	return members, err
}

// Update updates an existing member in the database
func (r *memberRepository) Update(member *models.Member) error {
	return r.db.Save(member).Error
}

// Delete removes a member by ID (soft delete)
func (r *memberRepository) Delete(id uint) error {
	return r.db.Delete(&models.Member{}, id).Error
}

// CountByOwner returns the number of members registered by an owner
func (r *memberRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Member{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// NextMemberNo returns the next per-owner display number. Soft-deleted rows
// are included so a number is never reissued.
func (r *memberRepository) NextMemberNo(ownerID uint) (uint, error) {
	var max uint
	err := r.db.Unscoped().Model(&models.Member{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(MAX(member_no), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
