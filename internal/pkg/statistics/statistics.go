package statistics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/internal/pkg/cache"
	"github.com/fitmania/gymdesk/internal/pkg/database"
	"github.com/fitmania/gymdesk/internal/pkg/feecycle"
)

const (
	// CacheKeyDashboard is formatted with the owner ID.
	CacheKeyDashboard = "statistics:dashboard:%d"
	CacheExpiration   = 5 * time.Minute
)

// DashboardData holds the stat tiles shown on the owner's dashboard.
type DashboardData struct {
	TotalMembers      int     `json:"total_members"`
	ActiveMembers     int     `json:"active_members"`
	OverdueMembers    int     `json:"overdue_members"`
	GraceMembers      int     `json:"grace_members"`
	PaymentsThisMonth int     `json:"payments_this_month"`
	RevenueThisMonth  float64 `json:"revenue_this_month"`
}

// GetDashboard returns the dashboard stats for an owner, recomputing at most
// once per cache expiration.
func GetDashboard(ownerID uint) (*DashboardData, error) {
	key := fmt.Sprintf(CacheKeyDashboard, ownerID)
	if raw, err := cache.Get(key); err == nil && raw != "" {
		var data DashboardData
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			return &data, nil
		}
	}

	data, err := computeDashboard(ownerID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(data); err == nil {
		if err := cache.Set(key, string(raw), CacheExpiration); err != nil {
			log.Printf("Failed to cache dashboard stats: %v", err)
		}
	}
	return data, nil
}

// InvalidateDashboard drops the cached stats, e.g. after a payment was
// recorded or a member was added.
func InvalidateDashboard(ownerID uint) {
	if err := cache.Delete(fmt.Sprintf(CacheKeyDashboard, ownerID)); err != nil {
		log.Printf("Failed to invalidate dashboard stats: %v", err)
	}
}

func computeDashboard(ownerID uint) (*DashboardData, error) {
	db := database.GetDB()

	var members []models.Member
	if err := db.Where("owner_id = ?", ownerID).Find(&members).Error; err != nil {
		log.Printf("Error loading members for dashboard: %v", err)
		return nil, err
	}

	data := &DashboardData{TotalMembers: len(members)}

	memberIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	paidByMember := make(map[uint]feecycle.PaidSet)
	if len(memberIDs) > 0 {
		var keys []models.PaymentKey
		if err := db.Model(&models.Payment{}).
			Select("member_id", "cycle_due_date").
			Where("member_id IN ?", memberIDs).
			Find(&keys).Error; err != nil {
			log.Printf("Error loading payment keys for dashboard: %v", err)
			return nil, err
		}
		for _, k := range keys {
			set, ok := paidByMember[k.MemberID]
			if !ok {
				set = make(feecycle.PaidSet)
				paidByMember[k.MemberID] = set
			}
			set[feecycle.FormatDate(k.CycleDueDate)] = struct{}{}
		}
	}

	today := feecycle.Normalize(time.Now())
	for _, m := range members {
		if m.Status == models.STATUS_ACTIVE {
			data.ActiveMembers++
		}
		st := feecycle.MemberStatus(m.JoinDate, today, paidByMember[m.ID], feecycle.DefaultGraceDays)
		switch st.Key {
		case feecycle.StateOverdue:
			data.OverdueMembers++
		case feecycle.StateGrace:
			data.GraceMembers++
		}
	}

	// Payments recorded this calendar month, across all of the owner's members.
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
	if len(memberIDs) > 0 {
		var payments []models.Payment
		if err := db.Where("member_id IN ? AND paid_at >= ?", memberIDs, monthStart).
			Find(&payments).Error; err != nil {
			log.Printf("Error loading payments for dashboard: %v", err)
			return nil, err
		}
		data.PaymentsThisMonth = len(payments)
		for _, p := range payments {
			data.RevenueThisMonth += p.Amount
		}
	}

	return data, nil
}
