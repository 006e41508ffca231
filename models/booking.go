package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

// Booking status constants
const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ActiveBookingStatuses are the statuses that hold a listing's dates
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusPaid,
	BookingStatusConfirmed,
}

// IsActive reports whether a booking in status s blocks its date range
func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	ListingID      string        `gorm:"type:varchar(36);not null;index:idx_bookings_listing_status,priority:1" json:"listing_id"`
	Listing        *Listing      `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	UserID         string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StartDate      time.Time     `gorm:"not null" json:"start_date"`
	EndDate        time.Time     `gorm:"not null" json:"end_date"`
	TotalAmount    int64         `gorm:"not null" json:"total_amount"` // smallest currency unit, fixed at creation
	Status         BookingStatus `gorm:"type:varchar(16);not null;index:idx_bookings_listing_status,priority:2" json:"status"`
	RefundRequired bool          `gorm:"not null;default:false" json:"refund_required"`
	Payment        *Payment      `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Days is the number of billable days: the half-open span rounded up to whole days.
func (b *Booking) Days() int64 {
	return BillableDays(b.StartDate, b.EndDate)
}

// BillableDays returns ceil((end-start) / 24h). Non-positive spans bill zero days.
func BillableDays(start, end time.Time) int64 {
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}
	day := 24 * time.Hour
	days := int64(span / day)
	if span%day != 0 {
		days++
	}
	return days
}
