// Package cardpdf renders the printable member card as a single-page PDF
// sized exactly to the card, photo included. Pure bytes in, bytes out; no
// filesystem or network access.
package cardpdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Card dimensions in points (landscape, roughly credit-card proportions
// scaled up for print).
const (
	cardWidth  = 600.0
	cardHeight = 380.0
	margin     = 28.0
	photoSize  = 180.0
)

// CardData is everything printed on a member card.
type CardData struct {
	GymName    string
	MemberNo   string
	FullName   string
	Phone      string
	JoinDate   string // YYYY-MM-DD
	MonthlyFee float64
}

// Render produces the card PDF. photoJPEG may be nil, in which case the
// photo box renders as an empty placeholder frame.
func Render(card CardData, photoJPEG []byte) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Header band with the gym name.
	pdf.SetFillColor(17, 24, 39)
	pdf.Rect(0, 0, cardWidth, 72, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Text(margin, 46, card.GymName)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(cardWidth-margin-110, 46, "MEMBER CARD")

	// Photo box on the left.
	photoX := margin
	photoY := 96.0
	pdf.SetDrawColor(209, 213, 219)
	pdf.Rect(photoX, photoY, photoSize, photoSize+40, "D")
	if len(photoJPEG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("member-photo", opts, bytes.NewReader(photoJPEG))
		pdf.ImageOptions("member-photo", photoX+4, photoY+4, photoSize-8, photoSize+32, false, opts, 0, "")
	}

	// Identity block on the right.
	textX := photoX + photoSize + 36
	pdf.SetTextColor(17, 24, 39)

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(textX, photoY+28, card.FullName)

	pdf.SetFont("Helvetica", "", 13)
	line := photoY + 64
	for _, row := range [][2]string{
		{"Member ID", card.MemberNo},
		{"Phone", card.Phone},
		{"Member since", card.JoinDate},
		{"Monthly fee", fmt.Sprintf("%.0f", card.MonthlyFee)},
	} {
		pdf.SetTextColor(107, 114, 128)
		pdf.Text(textX, line, row[0])
		pdf.SetTextColor(17, 24, 39)
		pdf.Text(textX+110, line, row[1])
		line += 28
	}

	// Footer rule.
	pdf.SetDrawColor(17, 24, 39)
	pdf.Line(margin, cardHeight-48, cardWidth-margin, cardHeight-48)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(107, 114, 128)
	pdf.Text(margin, cardHeight-30, "This card identifies an active member. Non-transferable.")

	if pdf.Err() {
		return nil, fmt.Errorf("card pdf render: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("card pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
