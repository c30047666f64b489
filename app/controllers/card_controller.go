package controllers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/fitmania/gymdesk/app/models"
	"github.com/fitmania/gymdesk/app/repository"
	"github.com/fitmania/gymdesk/internal/pkg/cardpdf"
	"github.com/fitmania/gymdesk/internal/pkg/env"
	"github.com/fitmania/gymdesk/internal/pkg/feecycle"
	"github.com/fitmania/gymdesk/internal/pkg/storage"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
)

// cardShareTTL is how long a shared card link stays valid.
const cardShareTTL = 24 * time.Hour

// HandleMemberCard renders the member's card as a single-page PDF.
func HandleMemberCard(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	pdfBytes, err := renderMemberCard(c, member)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to render card")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="member-card-%d.pdf"`, member.MemberNo))
	return c.Send(pdfBytes)
}

// HandleMemberCardShare renders the card, parks it in object storage and
// answers with a 24h share link plus a ready-made WhatsApp URL.
func HandleMemberCardShare(c *fiber.Ctx) error {
	member, err := requireMember(c)
	if member == nil {
		return err
	}

	client := storage.Get()
	if client == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Object storage is not configured")
	}

	pdfBytes, err := renderMemberCard(c, member)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to render card")
	}

	key := storage.CardKey(member.OwnerID, member.MemberNo, time.Now())
	if err := client.UploadBytes(c.Context(), key, pdfBytes, "application/pdf"); err != nil {
		fiberlog.Error(fmt.Sprintf("[Card] Upload failed for member %s: %v", member.UUID, err))
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store card")
	}

	shareURL, err := client.PresignGet(c.Context(), key, cardShareTTL)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create share link")
	}

	text := fmt.Sprintf("Your %s member card: %s", cardGymName(c, member.OwnerID), shareURL)
	whatsappURL := fmt.Sprintf("https://wa.me/%s?text=%s", whatsAppNumber(member.Phone), url.QueryEscape(text))

	return c.JSON(fiber.Map{
		"url":          shareURL,
		"whatsapp_url": whatsappURL,
		"expires_at":   time.Now().Add(cardShareTTL).UTC().Format(time.RFC3339),
	})
}

func renderMemberCard(c *fiber.Ctx, member *models.Member) ([]byte, error) {
	var photoJPEG []byte
	if member.PhotoPath != "" {
		if client := storage.Get(); client != nil {
			data, err := client.DownloadBytes(c.Context(), member.PhotoPath)
			if err != nil {
				// Card still renders, just with an empty photo frame.
				fiberlog.Warn(fmt.Sprintf("[Card] Could not fetch photo for member %s: %v", member.UUID, err))
			} else {
				photoJPEG = data
			}
		}
	}

	card := cardpdf.CardData{
		GymName:    cardGymName(c, member.OwnerID),
		MemberNo:   fmt.Sprintf("%04d", member.MemberNo),
		FullName:   member.FullName,
		Phone:      member.Phone,
		JoinDate:   feecycle.FormatDate(member.JoinDate),
		MonthlyFee: member.MonthlyFee,
	}
	return cardpdf.Render(card, photoJPEG)
}

// cardGymName resolves the gym name printed on the card: session first,
// then the owner record, then the GYM_NAME env fallback.
func cardGymName(c *fiber.Ctx, ownerID uint) string {
	if name := usercontext.GetUserContext(c).GymName; name != "" {
		return name
	}
	if owner, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ownerID); err == nil && owner.GymName != "" {
		return owner.GymName
	}
	return env.GetEnv("GYM_NAME", "FitZone Gym")
}

// whatsAppNumber converts a local 03XX-XXXXXXX number into the
// international digits-only form WhatsApp links expect (92XXXXXXXXXX).
func whatsAppNumber(phone string) string {
	digits := strings.ReplaceAll(phone, "-", "")
	digits = strings.TrimSpace(digits)
	if strings.HasPrefix(digits, "0") {
		digits = "92" + digits[1:]
	}
	return digits
}
