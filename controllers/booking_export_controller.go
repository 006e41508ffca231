package controllers

import (
	"fmt"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

// maxExportRows caps a single export
const maxExportRows = 5000

// GET /v1/bookings/owner/export
func (bc *BookingController) ExportOwnerBookings(c *gin.Context) {
	utils.LogInfo("ExportOwnerBookings called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	bookings, total, err := bc.bookings.ListOwnerBookings(c.Request.Context(), actor, 0, maxExportRows)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if total > maxExportRows {
		utils.LogWarn("Owner export for %s truncated to %d of %d bookings", actor.ID, maxExportRows, total)
	}

	file, err := BuildBookingsWorkbook(bookings, time.Now())
	if err != nil {
		utils.LogError("Failed to build bookings workbook: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", nil)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bookings_%s.xlsx", time.Now().UTC().Format("20060102")))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		return
	}
	utils.LogInfo("Exported %d bookings for %s", len(bookings), actor.ID)
}

// BuildBookingsWorkbook lays bookings out in one sheet followed by a per-status summary
func BuildBookingsWorkbook(bookings []models.Booking, generatedAt time.Time) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Bookings")
	if err != nil {
		return nil, err
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString(utils.AppName + " - Bookings Report")
	sheet.AddRow().AddCell().SetString("Generated: " + generatedAt.UTC().Format("2006-01-02 15:04"))
	sheet.AddRow()

	bold := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	bold.Font = *font

	headers := []string{"Booking ID", "Listing", "Guest", "Check-in", "Check-out", "Days", "Total", "Status", "Payment", "Refund Required"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	counts := make(map[models.BookingStatus]int)
	var collected int64
	for _, b := range bookings {
		row := sheet.AddRow()
		row.AddCell().SetString(b.ID)
		listing := b.ListingID
		if b.Listing != nil {
			listing = b.Listing.Title
		}
		row.AddCell().SetString(listing)
		guest := b.UserID
		if b.User != nil {
			guest = b.User.Email
		}
		row.AddCell().SetString(guest)
		row.AddCell().SetString(b.StartDate.UTC().Format(utils.DateLayout))
		row.AddCell().SetString(b.EndDate.UTC().Format(utils.DateLayout))
		row.AddCell().SetInt64(b.Days())
		row.AddCell().SetString(formatMinor(b.TotalAmount))
		row.AddCell().SetString(string(b.Status))
		payment := "-"
		if b.Payment != nil {
			payment = string(b.Payment.Status)
			if b.Payment.Status == models.PaymentStatusSuccess {
				collected += b.Payment.Amount
			}
		}
		row.AddCell().SetString(payment)
		row.AddCell().SetBool(b.RefundRequired)

		counts[b.Status]++
	}

	sheet.AddRow()
	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	summaryRow.Cells[0].SetStyle(bold)

	summary := [][]string{
		{"Total Bookings", fmt.Sprintf("%d", len(bookings))},
		{"Pending", fmt.Sprintf("%d", counts[models.BookingStatusPending])},
		{"Paid", fmt.Sprintf("%d", counts[models.BookingStatusPaid])},
		{"Confirmed", fmt.Sprintf("%d", counts[models.BookingStatusConfirmed])},
		{"Cancelled", fmt.Sprintf("%d", counts[models.BookingStatusCancelled])},
		{"Collected", formatMinor(collected)},
	}
	for _, data := range summary {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}
	return file, nil
}
