package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentProvider names a payment gateway
type PaymentProvider string

const (
	ProviderStripe   PaymentProvider = "STRIPE"
	ProviderRazorpay PaymentProvider = "RAZORPAY"
)

// Valid reports whether p is a supported provider
func (p PaymentProvider) Valid() bool {
	return p == ProviderStripe || p == ProviderRazorpay
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment tracks the settlement of one booking. There is at most one row per booking.
type Payment struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID         string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"booking_id"`
	Provider          PaymentProvider `gorm:"type:varchar(16);not null;index:idx_payments_provider_ref,priority:1" json:"provider"`
	ProviderPaymentID string          `gorm:"not null;index:idx_payments_provider_ref,priority:2" json:"provider_payment_id"`
	Status            PaymentStatus   `gorm:"type:varchar(16);not null" json:"status"`
	Amount            int64           `gorm:"not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	IsPlaceholder     bool            `gorm:"not null;default:false" json:"is_placeholder"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
