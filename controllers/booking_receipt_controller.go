package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// GET /v1/bookings/:id/receipt
func (bc *BookingController) DownloadReceipt(c *gin.Context) {
	utils.LogInfo("DownloadReceipt called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := bc.bookings.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	pdf, err := RenderReceipt(booking)
	if err != nil {
		utils.LogError("Failed to render receipt for booking %s: %v", bookingID, err)
		utils.InternalServerError(c, "Failed to generate receipt", nil)
		return
	}
	utils.LogInfo("Receipt generated for booking %s", bookingID)

	c.Header("Content-Disposition", "attachment; filename=receipt-"+booking.ID+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// RenderReceipt renders a one-page PDF receipt with a QR code of the booking id
func RenderReceipt(b *models.Booking) ([]byte, error) {
	qrPNG, err := qrcode.Encode("booking:"+b.ID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, utils.AppName)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(100, 8, "Booking ID: "+b.ID)
	pdf.Ln(8)
	pdf.Cell(100, 8, "Booked On: "+b.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	pdf.Ln(8)
	pdf.Cell(100, 8, "Status: "+string(b.Status))
	pdf.Ln(10)

	if b.Listing != nil {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(100, 8, "Listing:")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(100, 8, b.Listing.Title)
		pdf.Ln(10)
	}
	if b.User != nil {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(100, 8, "Guest:")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(100, 8, b.User.Name)
		pdf.Ln(6)
		pdf.Cell(100, 8, b.User.Email)
		pdf.Ln(10)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(50, 8, "Check-in", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, "Check-out", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(50, 8, b.StartDate.UTC().Format(utils.DateLayout), "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, b.EndDate.UTC().Format(utils.DateLayout), "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, fmt.Sprintf("%d", b.Days()), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, formatMinor(b.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(12)

	if b.Payment != nil {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(100, 8, "Payment:")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(100, 8, fmt.Sprintf("%s via %s (%s)", b.Payment.Status, b.Payment.Provider, b.Payment.Currency))
		pdf.Ln(8)
	}
	if b.RefundRequired {
		pdf.SetFont("Arial", "I", 12)
		pdf.Cell(100, 8, "This booking was cancelled after payment; a refund is pending.")
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatMinor renders an amount in the smallest currency unit with two decimals
func formatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
