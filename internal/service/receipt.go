package service

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"carrent/internal/domain"
)

// ReceiptService renders booking receipts.
type ReceiptService struct {
	shopName    string
	shopAddress string
	now         func() time.Time
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(shopName, shopAddress string) *ReceiptService {
	return &ReceiptService{
		shopName:    shopName,
		shopAddress: shopAddress,
		now:         time.Now,
	}
}

// RenderPDF renders the receipt of booking as a PDF document. deposit may
// be nil when no deposit was attempted.
func (s *ReceiptService) RenderPDF(booking *domain.Booking, deposit *domain.Deposit) ([]byte, error) {
	if booking == nil {
		return nil, ErrInvalidBookingID
	}
	q := booking.Quote()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Booking ID : "+booking.ID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Issued     : "+s.now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	section(pdf, "Rental")
	lines := []string{
		"Car          : " + booking.CarName,
		"Pickup date  : " + booking.StartDate.Format(domain.DateLayout),
		"Return date  : " + booking.EndDate.Format(domain.DateLayout),
		"Days         : " + strconv.Itoa(q.Days),
		"Current      : " + booking.CurrentProvince,
		"Destination  : " + booking.DestinationProvince,
	}
	if booking.PickupType == domain.PickupDelivery && booking.Delivery != nil {
		lines = append(lines,
			"Handover     : Delivery",
			fmt.Sprintf("Pin          : %.6f, %.6f", booking.Delivery.Lat, booking.Delivery.Lng),
		)
		if booking.DeliveryAddress != "" {
			lines = append(lines, "Address      : "+booking.DeliveryAddress)
		}
	} else {
		lines = append(lines, "Handover     : Self pickup at "+s.shopName)
		if s.shopAddress != "" {
			lines = append(lines, "Address      : "+s.shopAddress)
		}
	}
	lines = append(lines, "Contact      : "+booking.ContactNumber)
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	section(pdf, "Payment")
	pdf.Cell(0, 6, "Total        : "+formatAmount(q.Total))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Deposit (%d%%) : %s", domain.DepositPercent, formatAmount(q.Deposit)))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Remaining    : "+formatAmount(q.Remaining))
	pdf.Ln(6)
	status := "not paid"
	if deposit != nil {
		status = string(deposit.Status)
	}
	pdf.Cell(0, 6, "Deposit      : "+status)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, "The remaining balance is due at handover. Booking status: "+string(booking.Status)+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

// formatAmount renders an amount with thousands separators.
func formatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
