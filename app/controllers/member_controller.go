package controllers

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/xuri/excelize/v2"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/app/repository"
	"github.com/fitmania/gymdesk/internal/pkg/cache"
	"github.com/fitmania/gymdesk/internal/pkg/feecycle"
	"github.com/fitmania/gymdesk/internal/pkg/photo"
	"github.com/fitmania/gymdesk/internal/pkg/statistics"
	"github.com/fitmania/gymdesk/internal/pkg/storage"
	"github.com/fitmania/gymdesk/internal/pkg/upload"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
	"github.com/fitmania/gymdesk/internal/pkg/utils"
)

const (
	// Presigned URLs live 1h; the cache entry expires 5 minutes earlier so
	// a cached URL is never handed out with almost no lifetime left.
	photoURLTTL      = 1 * time.Hour
	photoURLCacheTTL = 55 * time.Minute
)

// memberJSON is the list/detail representation of a member with their
// computed fee status.
func memberJSON(m *models.Member, st feecycle.Status) fiber.Map {
	return fiber.Map{
		"uuid":        m.UUID,
		"member_no":   m.MemberNo,
		"full_name":   m.FullName,
		"phone":       m.Phone,
		"email":       m.Email,
		"join_date":   feecycle.FormatDate(m.JoinDate),
		"monthly_fee": m.MonthlyFee,
		"status":      m.Status,
		"notes":       m.Notes,
		"has_photo":   m.PhotoPath != "",
		"created_at":  m.CreatedAt.UTC().Format(time.RFC3339),
		"fee_status": fiber.Map{
			"key":          st.Key,
			"label":        st.Label,
			"due_date":     feecycle.FormatDate(st.Due),
			"unpaid_count": st.UnpaidCount,
		},
	}
}

// HandleListMembers returns all members of the owner with their aggregate
// fee status, optionally filtered by status or a search term.
func HandleListMembers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	memberRepo := repository.GetGlobalFactory().GetMemberRepository()
	members, err := memberRepo.ListByOwner(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load members")
	}

	// One bulk query for everyone's paid cycles instead of one per member.
	memberIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	paidByMember, err := loadPaidSets(memberIDs)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}

	statusFilter := c.Query("status", "all")
	search := strings.ToLower(strings.TrimSpace(c.Query("q")))
	today := feecycle.Normalize(time.Now())

	out := make([]fiber.Map, 0, len(members))
	for i := range members {
		m := &members[i]

		if search != "" {
			haystack := strings.ToLower(m.FullName) + " " + m.Phone + " " + strconv.FormatUint(uint64(m.MemberNo), 10)
			if !strings.Contains(haystack, search) {
				continue
			}
		}

		st := feecycle.MemberStatus(m.JoinDate, today, paidByMember[m.ID], feecycle.DefaultGraceDays)
		if !matchesStatusFilter(m, st, statusFilter) {
			continue
		}

		out = append(out, memberJSON(m, st))
	}

	return c.JSON(fiber.Map{
		"members": out,
		"total":   len(out),
	})
}

func matchesStatusFilter(m *models.Member, st feecycle.Status, filter string) bool {
	switch filter {
	case "", "all":
		return true
	case "active":
		return m.Status == models.STATUS_ACTIVE
	case "inactive":
		return m.Status == models.STATUS_INACTIVE
	case "overdue":
		return st.Key == feecycle.StateOverdue
	case "grace":
		return st.Key == feecycle.StateGrace
	default:
		return true
	}
}

// loadPaidSets groups the paid cycle keys of many members by member ID.
func loadPaidSets(memberIDs []uint) (map[uint]feecycle.PaidSet, error) {
	paidByMember := make(map[uint]feecycle.PaidSet, len(memberIDs))
	if len(memberIDs) == 0 {
		return paidByMember, nil
	}

	keys, err := repository.GetGlobalFactory().GetPaymentRepository().ListKeysByMembers(memberIDs)
	if err != nil {
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
	return paidByMember, nil
}

// HandleCreateMember creates a member from a multipart form. The photo is
// required, validated by sniffing, normalized and stored in S3; a failed
// upload does not roll back the member row.
func HandleCreateMember(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	joinDate, err := feecycle.ParseDate(c.FormValue("join_date"))
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", "join_date must be a valid YYYY-MM-DD date")
	}

	monthlyFee := float64(models.DefaultMonthlyFee)
	if raw := strings.TrimSpace(c.FormValue("monthly_fee")); raw != "" {
		monthlyFee, err = strconv.ParseFloat(raw, 64)
		if err != nil || monthlyFee <= 0 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", "monthly_fee must be a number greater than zero")
		}
	}

	status := c.FormValue("status", models.STATUS_ACTIVE)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", "A member photo is required")
	}
	if fileHeader.Size > photo.MaxRawBytes {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large", "Photo must be smaller than 20MB")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Could not read uploaded photo")
	}
	rawPhoto, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Could not read uploaded photo")
	}

	head := rawPhoto
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateImageBySniff(fileHeader.Filename, head); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", err.Error())
	}

	memberRepo := repository.GetGlobalFactory().GetMemberRepository()
	memberNo, err := memberRepo.NextMemberNo(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to assign member number")
	}

	member := &models.Member{
		OwnerID:    userCtx.UserID,
		MemberNo:   memberNo,
		FullName:   strings.TrimSpace(c.FormValue("full_name")),
		Phone:      strings.TrimSpace(c.FormValue("phone")),
		Email:      strings.TrimSpace(c.FormValue("email")),
		JoinDate:   joinDate,
		MonthlyFee: monthlyFee,
		Status:     status,
		Notes:      c.FormValue("notes"),
	}
	if err := member.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", err.Error())
	}

	if err := memberRepo.Create(member); err != nil {
		if isDuplicateKeyErr(err) {
			return jsonError(c, fiber.StatusConflict, "duplicate_phone", "A member with this phone number already exists")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create member")
	}

	// Photo upload is best-effort after the row exists: a storage outage
	// should not lose the registration typed in at the front desk.
	if key := uploadMemberPhoto(c.Context(), member, rawPhoto, fileHeader.Filename); key != "" {
		member.PhotoPath = key
		if err := memberRepo.Update(member); err != nil {
			fiberlog.Error(fmt.Sprintf("[Member] Failed to save photo path for member %s: %v", member.UUID, err))
		}
	}

	statistics.InvalidateDashboard(member.OwnerID)

	today := feecycle.Normalize(time.Now())
	st := feecycle.MemberStatus(member.JoinDate, today, nil, feecycle.DefaultGraceDays)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"member": memberJSON(member, st),
	})
}

func uploadMemberPhoto(ctx context.Context, member *models.Member, raw []byte, filename string) string {
	client := storage.Get()
	if client == nil {
		fiberlog.Warn("[Member] Object storage not configured, skipping photo upload")
		return ""
	}

	result := photo.Normalize(raw, filename)
	key := storage.PhotoKey(member.OwnerID, member.UUID, time.Now())
	if err := client.UploadBytes(ctx, key, result.Data, result.ContentType); err != nil {
		fiberlog.Error(fmt.Sprintf("[Member] Photo upload failed for member %s: %v", member.UUID, err))
		return ""
	}
	return key
}

// HandleGetMember returns the member detail: profile, aggregate fee status,
// per-cycle history (latest first), summary counts, payments and a
// presigned photo URL.
func HandleGetMember(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().ListByMember(member.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}

	paid := make(feecycle.PaidSet, len(payments))
	paidAt := make(map[string]time.Time, len(payments))
	for _, p := range payments {
		key := feecycle.FormatDate(p.CycleDueDate)
		paid[key] = struct{}{}
		paidAt[key] = p.PaidAt
	}

	today := feecycle.Normalize(time.Now())
	st := feecycle.MemberStatus(member.JoinDate, today, paid, feecycle.DefaultGraceDays)
	history := feecycle.History(member.JoinDate, today, paid, feecycle.DefaultGraceDays)
	summary := feecycle.Summarize(history)

	historyOut := make([]fiber.Map, 0, len(history))
	for _, cyc := range history {
		row := fiber.Map{
			"due_date": cyc.Key,
			"month":    cyc.Month,
			"state":    cyc.State,
			"label":    cyc.Label,
			"payable":  cyc.Payable,
		}
		if at, ok := paidAt[cyc.Key]; ok {
			row["paid_at"] = at.UTC().Format(time.RFC3339)
		}
		historyOut = append(historyOut, row)
	}

	return c.JSON(fiber.Map{
		"member":    memberJSON(member, st),
		"photo_url": presignPhotoURL(c.Context(), member),
		"history":   historyOut,
		"summary": fiber.Map{
			"paid":     summary.Paid,
			"unpaid":   summary.Unpaid,
			"due_soon": summary.DueSoon,
			"grace":    summary.Grace,
			"overdue":  summary.Overdue,
		},
	})
}

// presignPhotoURL returns a short-lived read URL for the member photo, or
// nil when there is no photo or no storage. URLs are cached in Redis so a
// busy detail view does not presign on every request.
func presignPhotoURL(ctx context.Context, member *models.Member) interface{} {
	if member.PhotoPath == "" {
		// Fall back to a gravatar when we at least have an email.
		if member.Email != "" {
			return utils.GetGravatarURL(member.Email, 200)
		}
		return nil
	}

	cacheKey := fmt.Sprintf("member:photo_url:%d", member.ID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		return cached
	}

	client := storage.Get()
	if client == nil {
		return nil
	}

	url, err := client.PresignGet(ctx, member.PhotoPath, photoURLTTL)
	if err != nil {
		fiberlog.Warn(fmt.Sprintf("[Member] Failed to presign photo for member %s: %v", member.UUID, err))
		return nil
	}

	if err := cache.Set(cacheKey, url, photoURLCacheTTL); err != nil {
		fiberlog.Warn(fmt.Sprintf("[Member] Failed to cache photo URL: %v", err))
	}
	return url
}

// HandleUpdateMember edits the mutable member fields. The join date anchors
// the whole fee history and is never editable.
func HandleUpdateMember(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	var req struct {
		FullName   *string  `json:"full_name"`
		Phone      *string  `json:"phone"`
		Email      *string  `json:"email"`
		MonthlyFee *float64 `json:"monthly_fee"`
		Status     *string  `json:"status"`
		Notes      *string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.FullName != nil {
		member.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		member.Email = strings.TrimSpace(*req.Email)
	}
	if req.MonthlyFee != nil {
		member.MonthlyFee = *req.MonthlyFee
	}
	if req.Status != nil {
		member.Status = *req.Status
	}
	if req.Notes != nil {
		member.Notes = *req.Notes
	}

	if err := member.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_error", err.Error())
	}

	if err := repository.GetGlobalFactory().GetMemberRepository().Update(member); err != nil {
		if isDuplicateKeyErr(err) {
			return jsonError(c, fiber.StatusConflict, "duplicate_phone", "A member with this phone number already exists")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update member")
	}

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().ListByMember(member.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	paid := make(feecycle.PaidSet, len(payments))
	for _, p := range payments {
		paid[feecycle.FormatDate(p.CycleDueDate)] = struct{}{}
	}

	today := feecycle.Normalize(time.Now())
	st := feecycle.MemberStatus(member.JoinDate, today, paid, feecycle.DefaultGraceDays)

	return c.JSON(fiber.Map{"member": memberJSON(member, st)})
}

// HandleDeleteMember removes a member. The stored photo is deleted
// best-effort; a storage failure does not block the member deletion.
func HandleDeleteMember(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	if member.PhotoPath != "" {
		if client := storage.Get(); client != nil {
			if err := client.Delete(c.Context(), member.PhotoPath); err != nil {
				fiberlog.Warn(fmt.Sprintf("[Member] Failed to delete photo %s: %v", member.PhotoPath, err))
			}
		}
		cache.Delete(fmt.Sprintf("member:photo_url:%d", member.ID))
	}

	if err := repository.GetGlobalFactory().GetMemberRepository().Delete(member.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete member")
	}

	statistics.InvalidateDashboard(member.OwnerID)

	return c.JSON(fiber.Map{"message": "Member deleted"})
}

// HandleExportMembers streams an XLSX workbook of all members with their
// current fee status.
func HandleExportMembers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	members, err := repository.GetGlobalFactory().GetMemberRepository().ListByOwner(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load members")
	}

	memberIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	paidByMember, err := loadPaidSets(memberIDs)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}

	today := feecycle.Normalize(time.Now())

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Members"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Member No", "Full Name", "Phone", "Email", "Join Date", "Monthly Fee", "Membership", "Fee Status", "Unpaid Cycles"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, m := range members {
		st := feecycle.MemberStatus(m.JoinDate, today, paidByMember[m.ID], feecycle.DefaultGraceDays)
		values := []interface{}{
			m.MemberNo,
			m.FullName,
			m.Phone,
			m.Email,
			feecycle.FormatDate(m.JoinDate),
			m.MonthlyFee,
			m.Status,
			st.Label,
			st.UnpaidCount,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to build export")
	}

	filename := fmt.Sprintf("members-%s.xlsx", today.Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
